package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

type reservationServiceStub struct {
	entries      []application.AnnotatedEntry
	records      []booking.ReservationRecord
	availability booking.Availability
	window       booking.DateRange
	today        booking.Date
	result       application.CancelResult
	err          error

	dayParams    application.DayParams
	gridParams   application.GridParams
	rangeParams  application.RangeParams
	cancelParams application.CancelParams
	blocksParams application.CancelBlocksParams
	expandParams application.ExpandParams
	createParams application.CreateReservationParams
}

func (s *reservationServiceStub) GetGroupedReservationsForDay(ctx context.Context, params application.DayParams) ([]application.AnnotatedEntry, error) {
	s.dayParams = params
	return s.entries, s.err
}

func (s *reservationServiceStub) GetReservationsForRange(ctx context.Context, params application.RangeParams) ([]application.AnnotatedEntry, booking.DateRange, error) {
	s.rangeParams = params
	return s.entries, s.window, s.err
}

func (s *reservationServiceStub) GetAvailabilityGrid(ctx context.Context, params application.GridParams) (booking.Availability, error) {
	s.gridParams = params
	return s.availability, s.err
}

func (s *reservationServiceStub) CancelGroupOrRecord(ctx context.Context, params application.CancelParams) (application.CancelResult, error) {
	s.cancelParams = params
	return s.result, s.err
}

func (s *reservationServiceStub) ExpandGroup(ctx context.Context, params application.ExpandParams) ([]booking.ReservationRecord, error) {
	s.expandParams = params
	return s.records, s.err
}

func (s *reservationServiceStub) CancelBlocks(ctx context.Context, params application.CancelBlocksParams) (application.CancelResult, error) {
	s.blocksParams = params
	return s.result, s.err
}

func (s *reservationServiceStub) CreateReservation(ctx context.Context, params application.CreateReservationParams) ([]booking.ReservationRecord, error) {
	s.createParams = params
	return s.records, s.err
}

func (s *reservationServiceStub) Today() booking.Date { return s.today }

var testPrincipal = application.Principal{UserID: "user-1", Name: "Ana Rojas", Role: booking.RoleSubdirector}

func testRecord(id, start, end string) booking.ReservationRecord {
	return booking.ReservationRecord{
		ID:          id,
		Date:        booking.MustParseDate("2024-03-11"),
		Block:       booking.MustBlock(start, end),
		RoomID:      "room-1",
		RoomName:    "Aula Magna",
		Purpose:     "Consejo de profesores",
		Status:      booking.StatusConfirmed,
		OwnerUserID: "user-1",
		OwnerName:   "Ana Rojas",
	}
}

func newTestRouter(reservations reservationServiceStub) (http.Handler, *reservationServiceStub) {
	stub := &reservations
	router := NewRouter(RouterConfig{
		Reservations: NewReservationHandler(stub, nil),
		Session: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), testPrincipal)))
			})
		},
	})
	return router, stub
}

func serve(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestReservationHandlers(t *testing.T) {
	t.Run("day view serializes consolidated entries", func(t *testing.T) {
		grouped := booking.Consolidate([]booking.ReservationRecord{
			testRecord("r1", "09:00", "10:00"),
			testRecord("r2", "10:00", "11:00"),
		})
		router, stub := newTestRouter(reservationServiceStub{entries: []application.AnnotatedEntry{{
			Entry:       grouped[0],
			Permissions: booking.Permissions{CanCancel: true, CanEdit: true},
		}}})

		rec := serve(t, router, http.MethodGet, "/api/reservations/day?date=2024-03-11&room_id=room-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.dayParams.Date.String() != "2024-03-11" || stub.dayParams.RoomID == nil || *stub.dayParams.RoomID != "room-1" {
			t.Fatalf("unexpected params %+v", stub.dayParams)
		}
		resp := decode[dayResponse](t, rec)
		if len(resp.Entries) != 1 {
			t.Fatalf("expected one entry, got %d", len(resp.Entries))
		}
		e := resp.Entries[0]
		if e.ID != "grouped-r1" || e.Kind != "grouped" || e.Start != "09:00" || e.End != "11:00" || !e.CanEdit {
			t.Fatalf("unexpected entry %+v", e)
		}
		if len(e.RecordIDs) != 2 || e.Purpose != "Consejo de profesores (2 hours)" {
			t.Fatalf("unexpected grouped details %+v", e)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		router, _ := newTestRouter(reservationServiceStub{})
		rec := serve(t, router, http.MethodGet, "/api/reservations/day?date=11-03-2024", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("omitted date falls back to today", func(t *testing.T) {
		today := booking.MustParseDate("2024-03-12")
		router, stub := newTestRouter(reservationServiceStub{today: today})

		rec := serve(t, router, http.MethodGet, "/api/reservations/day", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.dayParams.Date != today {
			t.Fatalf("expected day view of %s, got %s", today, stub.dayParams.Date)
		}
		if resp := decode[dayResponse](t, rec); resp.Date != "2024-03-12" {
			t.Fatalf("unexpected date %q", resp.Date)
		}

		rec = serve(t, router, http.MethodGet, "/api/rooms/room-1/availability", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.gridParams.Date != today {
			t.Fatalf("expected availability of %s, got %s", today, stub.gridParams.Date)
		}
	})

	t.Run("personal view passes the range", func(t *testing.T) {
		today := booking.MustParseDate("2024-03-11")
		router, stub := newTestRouter(reservationServiceStub{window: booking.ResolveRange(booking.RangeWeek, today)})
		rec := serve(t, router, http.MethodGet, "/api/reservations/mine?range=WEEK", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.rangeParams.Range != booking.RangeWeek {
			t.Fatalf("expected week range, got %q", stub.rangeParams.Range)
		}
		if resp := decode[rangeResponse](t, rec); resp.Start != "2024-03-11" || resp.End != "2024-03-17" {
			t.Fatalf("unexpected window %+v", resp)
		}
	})

	t.Run("cancel with a grouped display id targets the group", func(t *testing.T) {
		router, stub := newTestRouter(reservationServiceStub{result: application.CancelResult{Succeeded: 2}})
		rec := serve(t, router, http.MethodDelete, "/api/reservations/grouped-r1?start=09:00&end=11:00&view=personal", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		ref := stub.cancelParams.Target
		if ref.ReservationID != "r1" || ref.Kind != booking.EntryGrouped || ref.Span == nil || *ref.Span != booking.MustBlock("09:00", "11:00") {
			t.Fatalf("unexpected target %+v", ref)
		}
		if stub.cancelParams.Scope != application.ScopePersonal {
			t.Fatalf("expected personal scope, got %q", stub.cancelParams.Scope)
		}
		if resp := decode[cancelResponse](t, rec); resp.Succeeded != 2 {
			t.Fatalf("unexpected counts %+v", resp)
		}
	})

	t.Run("partial failure answers multi-status with counts", func(t *testing.T) {
		router, _ := newTestRouter(reservationServiceStub{
			result: application.CancelResult{Succeeded: 1, Failed: 1},
			err:    &application.PartialFailureError{Succeeded: 1, Failed: 1, Errs: []error{errors.New("locked")}},
		})
		rec := serve(t, router, http.MethodDelete, "/api/reservations/r1?kind=grouped", "")
		if rec.Code != http.StatusMultiStatus {
			t.Fatalf("expected 207, got %d", rec.Code)
		}
		resp := decode[partialFailureResponse](t, rec)
		if resp.Succeeded != 1 || resp.Failed != 1 || resp.ErrorCode != "PARTIAL_FAILURE" {
			t.Fatalf("unexpected body %+v", resp)
		}
	})

	t.Run("cancel-blocks decodes the selection", func(t *testing.T) {
		router, stub := newTestRouter(reservationServiceStub{result: application.CancelResult{Succeeded: 1}})
		body := `{"start":"09:00","end":"11:00","view":"day","blocks":[{"start":"10:00","end":"11:00"}]}`
		rec := serve(t, router, http.MethodPost, "/api/reservations/r1/cancel-blocks", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if len(stub.blocksParams.Blocks) != 1 || stub.blocksParams.Blocks[0] != booking.MustBlock("10:00", "11:00") {
			t.Fatalf("unexpected blocks %+v", stub.blocksParams.Blocks)
		}
		if stub.blocksParams.Target.Kind != booking.EntryGrouped || stub.blocksParams.Target.Span == nil {
			t.Fatalf("unexpected target %+v", stub.blocksParams.Target)
		}

		rec = serve(t, router, http.MethodPost, "/api/reservations/r1/cancel-blocks", `{"blocks":[{"start":"25:00","end":"26:00"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for malformed block, got %d", rec.Code)
		}
	})

	t.Run("expand returns the group's records", func(t *testing.T) {
		router, stub := newTestRouter(reservationServiceStub{records: []booking.ReservationRecord{
			testRecord("r1", "09:00", "10:00"),
			testRecord("r2", "10:00", "11:00"),
		}})
		rec := serve(t, router, http.MethodGet, "/api/reservations/r1/expand", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if stub.expandParams.Target.Kind != booking.EntryGrouped {
			t.Fatalf("expand always targets a group, got %v", stub.expandParams.Target.Kind)
		}
		if resp := decode[reservationsResponse](t, rec); len(resp.Reservations) != 2 || resp.Reservations[1].Start != "10:00" {
			t.Fatalf("unexpected records %+v", resp)
		}
	})

	t.Run("create decodes slots and recurrence", func(t *testing.T) {
		router, stub := newTestRouter(reservationServiceStub{records: []booking.ReservationRecord{testRecord("r1", "09:00", "10:00")}})
		body := `{"room_id":"room-1","date":"2024-03-11","slots":[{"start":"09:00","end":"10:00"}],"purpose":"Taller","responsible_name":"  ","recurrence":{"frequency":"Weekly","weekdays":[1,3],"until":"2024-03-31"}}`
		rec := serve(t, router, http.MethodPost, "/api/reservations", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		input := stub.createParams.Input
		if input.RoomID != "room-1" || len(input.Slots) != 1 || input.ResponsibleName != nil {
			t.Fatalf("unexpected input %+v", input)
		}
		if input.Recurrence.Frequency != booking.FrequencyWeekly || len(input.Recurrence.Weekdays) != 2 || input.Recurrence.Weekdays[1] != time.Wednesday {
			t.Fatalf("unexpected recurrence %+v", input.Recurrence)
		}
		if stub.createParams.Principal.UserID != testPrincipal.UserID {
			t.Fatalf("expected principal from context")
		}
	})

	t.Run("maps service errors to statuses", func(t *testing.T) {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"purpose": "purpose is required"}}
		tests := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{name: "conflict", err: application.ErrConflict, status: http.StatusConflict, code: "SLOT_TAKEN"},
			{name: "ended", err: application.ErrReservationEnded, status: http.StatusConflict, code: "RESERVATION_ENDED"},
			{name: "forbidden", err: application.ErrPermissionDenied, status: http.StatusForbidden, code: "AUTH_FORBIDDEN"},
			{name: "not found", err: application.ErrNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
			{name: "validation", err: vErr, status: http.StatusUnprocessableEntity, code: "VALIDATION_FAILED"},
			{name: "upstream", err: &application.UpstreamError{Op: "create", Err: errors.New("timeout")}, status: http.StatusBadGateway, code: "UPSTREAM_UNAVAILABLE"},
			{name: "unauthenticated", err: application.ErrNotAuthenticated, status: http.StatusUnauthorized, code: "AUTH_REQUIRED"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				router, _ := newTestRouter(reservationServiceStub{err: tc.err})
				rec := serve(t, router, http.MethodPost, "/api/reservations", `{"room_id":"room-1"}`)
				if rec.Code != tc.status {
					t.Fatalf("expected %d, got %d", tc.status, rec.Code)
				}
				resp := decode[errorResponse](t, rec)
				if resp.ErrorCode != tc.code {
					t.Fatalf("expected code %s, got %+v", tc.code, resp)
				}
				if tc.code == "VALIDATION_FAILED" && resp.Errors["purpose"] != "El motivo de la reserva es obligatorio." {
					t.Fatalf("expected localized field error, got %+v", resp.Errors)
				}
			})
		}
	})

	t.Run("availability lists every slot", func(t *testing.T) {
		grid := booking.DefaultGrid()
		record := testRecord("r1", "09:00", "10:00")
		availability := booking.ComputeAvailability(grid, []booking.ReservationRecord{record}, "room-1", "user-2")
		router, _ := newTestRouter(reservationServiceStub{availability: availability})

		rec := serve(t, router, http.MethodGet, "/api/rooms/room-1/availability?date=2024-03-11", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		resp := decode[availabilityResponse](t, rec)
		if len(resp.Slots) != grid.Len() || resp.Available != grid.Len()-1 {
			t.Fatalf("unexpected availability %+v", resp)
		}
		if resp.Slots[1].State != string(booking.SlotOccupied) || resp.Slots[1].ReservationID != "r1" {
			t.Fatalf("unexpected 09:00 slot %+v", resp.Slots[1])
		}
	})
}

type checkinServiceStub struct {
	issued  application.IssuedCode
	record  booking.ReservationRecord
	err     error
	checkIn application.CheckInParams
}

func (s *checkinServiceStub) IssueCode(ctx context.Context, params application.IssueCodeParams) (application.IssuedCode, error) {
	return s.issued, s.err
}

func (s *checkinServiceStub) CheckIn(ctx context.Context, params application.CheckInParams) (booking.ReservationRecord, error) {
	s.checkIn = params
	return s.record, s.err
}

func TestCheckinHandlers(t *testing.T) {
	expires := time.Date(2024, time.March, 11, 10, 50, 0, 0, time.UTC)
	stub := &checkinServiceStub{
		issued: application.IssuedCode{ReservationID: "r1", Code: "ABCD2345", ExpiresAt: expires},
		record: testRecord("r1", "09:00", "10:00"),
	}
	router := NewRouter(RouterConfig{Checkins: NewCheckinHandler(stub, nil)})

	rec := serve(t, router, http.MethodPost, "/api/reservations/r1/checkin-code", "")
	if rec.Code != http.StatusCreated || rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected 201 with no-store, got %d %q", rec.Code, rec.Header().Get("Cache-Control"))
	}
	if resp := decode[issuedCodeResponse](t, rec); resp.Code != "ABCD2345" || resp.ExpiresAt != "2024-03-11T10:50:00Z" {
		t.Fatalf("unexpected body %+v", resp)
	}

	rec = serve(t, router, http.MethodPost, "/api/reservations/r1/checkin", `{"code":"abcd2345"}`)
	if rec.Code != http.StatusOK || stub.checkIn.Code != "abcd2345" {
		t.Fatalf("expected 200 with forwarded code, got %d %+v", rec.Code, stub.checkIn)
	}

	stub.err = application.ErrCheckinWindowClosed
	rec = serve(t, router, http.MethodPost, "/api/reservations/r1/checkin", `{"code":"x"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 outside window, got %d", rec.Code)
	}
	stub.err = application.ErrCodeExpired
	rec = serve(t, router, http.MethodPost, "/api/reservations/r1/checkin", `{"code":"x"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for expired code, got %d", rec.Code)
	}
}

type roomServiceStub struct {
	rooms     []application.Room
	buildings []application.Building
	err       error
	list      application.ListRoomsParams
	active    application.SetRoomActiveParams
}

func (s *roomServiceStub) ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error) {
	s.list = params
	return s.rooms, s.err
}

func (s *roomServiceStub) ListBuildings(ctx context.Context, principal application.Principal) ([]application.Building, error) {
	return s.buildings, s.err
}

func (s *roomServiceStub) SetRoomActive(ctx context.Context, params application.SetRoomActiveParams) (application.Room, error) {
	s.active = params
	if s.err != nil {
		return application.Room{}, s.err
	}
	return application.Room{ID: params.RoomID, Active: params.Active}, nil
}

func TestRoomHandlers(t *testing.T) {
	stub := &roomServiceStub{
		rooms:     []application.Room{{ID: "room-1", Name: "Aula Magna", BuildingName: "Liceo Central", Active: true}},
		buildings: []application.Building{{ID: "b1", Name: "Liceo Central", Active: true}},
	}
	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(stub, nil)})

	rec := serve(t, router, http.MethodGet, "/api/rooms?building_id=b1&include_inactive=true", "")
	if rec.Code != http.StatusOK || !stub.list.IncludeInactive || stub.list.BuildingID == nil {
		t.Fatalf("unexpected list call %d %+v", rec.Code, stub.list)
	}
	if resp := decode[listRoomsResponse](t, rec); len(resp.Rooms) != 1 || resp.Rooms[0].Equipment == nil {
		t.Fatalf("unexpected rooms %+v", resp)
	}

	if rec := serve(t, router, http.MethodGet, "/api/rooms?include_inactive=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad flag, got %d", rec.Code)
	}

	rec = serve(t, router, http.MethodPatch, "/api/rooms/room-1", `{"active":false}`)
	if rec.Code != http.StatusOK || stub.active.RoomID != "room-1" || stub.active.Active {
		t.Fatalf("unexpected update %d %+v", rec.Code, stub.active)
	}
	if rec := serve(t, router, http.MethodPatch, "/api/rooms/room-1", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without active flag, got %d", rec.Code)
	}

	stub.err = application.ErrPermissionDenied
	if rec := serve(t, router, http.MethodPatch, "/api/rooms/room-1", `{"active":true}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	stub.err = nil
	rec = serve(t, router, http.MethodGet, "/api/buildings", "")
	if resp := decode[listBuildingsResponse](t, rec); len(resp.Buildings) != 1 {
		t.Fatalf("unexpected buildings %+v", resp)
	}
}

type userServiceStub struct {
	users  []application.User
	query  string
	update application.UpdateRoleParams
	err    error
}

func (s *userServiceStub) SearchResponsible(ctx context.Context, principal application.Principal, query string) ([]application.User, error) {
	s.query = query
	return s.users, s.err
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error) {
	return s.users, s.err
}

func (s *userServiceStub) UpdateRole(ctx context.Context, params application.UpdateRoleParams) (application.User, error) {
	s.update = params
	return application.User{ID: params.UserID, Role: params.Role}, s.err
}

func TestUserHandlers(t *testing.T) {
	stub := &userServiceStub{users: []application.User{{ID: "u1", FullName: "Luis Soto", Email: "luis@colegio.cl", Role: booking.RoleFuncionario, Active: true}}}
	router := NewRouter(RouterConfig{Users: NewUserHandler(stub, nil)})

	rec := serve(t, router, http.MethodGet, "/api/users/responsibles?q=sot", "")
	if rec.Code != http.StatusOK || stub.query != "sot" {
		t.Fatalf("unexpected search %d %q", rec.Code, stub.query)
	}
	if strings.Contains(rec.Body.String(), "luis@colegio.cl") {
		t.Fatalf("responsible picker must not expose emails: %s", rec.Body.String())
	}

	rec = serve(t, router, http.MethodPatch, "/api/users/u1", `{"role":"admin"}`)
	if rec.Code != http.StatusOK || stub.update.Role != booking.RoleAdmin {
		t.Fatalf("unexpected update %d %+v", rec.Code, stub.update)
	}
}

type statsServiceStub struct {
	params application.StatsParams
	err    error
}

func (s *statsServiceStub) Overview(ctx context.Context, params application.StatsParams) (application.Overview, error) {
	s.params = params
	return application.Overview{Today: 2, Month: 10, NoShowRate: 12.5}, s.err
}

func (s *statsServiceStub) RoomUsage(ctx context.Context, params application.StatsParams) ([]application.RoomUsage, error) {
	s.params = params
	return []application.RoomUsage{{RoomID: "room-1", Total: 4, CheckedIn: 1, CheckinRate: 25}}, s.err
}

func TestStatsHandlers(t *testing.T) {
	stub := &statsServiceStub{}
	router := NewRouter(RouterConfig{Stats: NewStatsHandler(stub, nil)})

	rec := serve(t, router, http.MethodGet, "/api/stats/overview?month=2024-02", "")
	if rec.Code != http.StatusOK || stub.params.Month.String() != "2024-02-01" {
		t.Fatalf("unexpected overview call %d %s", rec.Code, stub.params.Month)
	}
	if resp := decode[overviewResponse](t, rec); resp.Month != 10 || resp.NoShowRate != 12.5 {
		t.Fatalf("unexpected overview %+v", resp)
	}

	rec = serve(t, router, http.MethodGet, "/api/stats/rooms", "")
	if resp := decode[roomUsageResponse](t, rec); len(resp.Rooms) != 1 || resp.Rooms[0].CheckinRate != 25 {
		t.Fatalf("unexpected usage %+v", resp)
	}

	if rec := serve(t, router, http.MethodGet, "/api/stats/rooms?month=febrero", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rec.Code)
	}

	stub.err = application.ErrPermissionDenied
	if rec := serve(t, router, http.MethodGet, "/api/stats/overview", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter(t *testing.T) {
	validator := &sessionValidatorStub{err: application.ErrInvalidToken}
	router := NewRouter(RouterConfig{
		Reservations: NewReservationHandler(&reservationServiceStub{}, nil),
		Session:      RequireSession(validator, nil),
	})

	if rec := serve(t, router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz must be public, got %d", rec.Code)
	}
	if rec := serve(t, router, http.MethodGet, "/api/reservations/day?date=2024-03-11", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("api routes require a session, got %d", rec.Code)
	}
}
