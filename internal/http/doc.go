// Package http provides the JSON API of the room reservation service.
//
// Every route under /api requires a bearer token (see RequireSession):
//   - GET /api/reservations/day?date=YYYY-MM-DD&room_id=: the consolidated day
//     view with per-entry permissions.
//   - GET /api/reservations/mine?range=today|week|month|all: the caller's own
//     reservations, consolidated.
//   - POST /api/reservations: books one or more grid slots, optionally
//     repeating daily or weekly. Body: `createReservationRequest`.
//   - GET /api/reservations/{id}/expand?start=&end=&view=: the records of a
//     group, for editing.
//   - DELETE /api/reservations/{id}?kind=single|grouped&start=&end=&view=day|personal:
//     cancels a record or a whole group. Partial failures answer 207 with counts.
//   - POST /api/reservations/{id}/cancel-blocks: cancels selected blocks of a group.
//   - POST /api/reservations/{id}/checkin-code and POST /api/reservations/{id}/checkin.
//   - GET /api/rooms, GET /api/rooms/{id}/availability?date=, PATCH /api/rooms/{id},
//     GET /api/buildings.
//   - GET /api/users/responsibles?q=, GET /api/users, PATCH /api/users/{id}.
//   - GET /api/stats/overview?month=, GET /api/stats/rooms?month=.
//
// GET /healthz is public.
//
// Request and response DTOs live alongside their handlers.
package http
