package http

import (
	"net/http"
)

type RouterConfig struct {
	Reservations *ReservationHandler
	Checkins     *CheckinHandler
	Rooms        *RoomHandler
	Users        *UserHandler
	Stats        *StatsHandler
	// Session guards every /api route; nil leaves them unauthenticated.
	Session    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	if cfg.Reservations != nil {
		api.HandleFunc("GET /api/reservations/day", cfg.Reservations.Day)
		api.HandleFunc("GET /api/reservations/mine", cfg.Reservations.Mine)
		api.HandleFunc("POST /api/reservations", cfg.Reservations.Create)
		api.HandleFunc("GET /api/reservations/{id}/expand", cfg.Reservations.Expand)
		api.HandleFunc("DELETE /api/reservations/{id}", cfg.Reservations.Cancel)
		api.HandleFunc("POST /api/reservations/{id}/cancel-blocks", cfg.Reservations.CancelBlocks)
		api.HandleFunc("GET /api/rooms/{id}/availability", cfg.Reservations.Availability)
	}

	if cfg.Checkins != nil {
		api.HandleFunc("POST /api/reservations/{id}/checkin-code", cfg.Checkins.IssueCode)
		api.HandleFunc("POST /api/reservations/{id}/checkin", cfg.Checkins.CheckIn)
	}

	if cfg.Rooms != nil {
		api.HandleFunc("GET /api/rooms", cfg.Rooms.List)
		api.HandleFunc("PATCH /api/rooms/{id}", cfg.Rooms.Update)
		api.HandleFunc("GET /api/buildings", cfg.Rooms.ListBuildings)
	}

	if cfg.Users != nil {
		api.HandleFunc("GET /api/users/responsibles", cfg.Users.Responsibles)
		api.HandleFunc("GET /api/users", cfg.Users.List)
		api.HandleFunc("PATCH /api/users/{id}", cfg.Users.Update)
	}

	if cfg.Stats != nil {
		api.HandleFunc("GET /api/stats/overview", cfg.Stats.Overview)
		api.HandleFunc("GET /api/stats/rooms", cfg.Stats.RoomUsage)
	}

	var protected http.Handler = api
	if cfg.Session != nil {
		protected = cfg.Session(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/api/", protected)

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
