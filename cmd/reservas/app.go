package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/auth"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/events"
	httptransport "github.com/example/room-reservations/internal/http"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/sqlstore"
)

// publisher is what the services publish through; the AMQP publisher also
// needs closing.
type publisher interface {
	application.EventPublisher
	Close() error
}

// app holds the opened store and every service built on it.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time

	store     *sqlstore.Store
	publisher publisher
	verifier  *auth.Verifier

	users        *userRepositoryAdapter
	auth         *application.AuthService
	reservations *application.ReservationService
	checkins     *application.CheckinService
	rooms        *application.RoomService
	userService  *application.UserService
	stats        *application.StatisticsService
}

type appOptions struct {
	// Events overrides the configured publisher.
	Events publisher
	Now    func() time.Time
	NewID  func() string
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a, err := newApp(store, cfg, logger, opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func newApp(store *sqlstore.Store, cfg config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	pub := opts.Events
	if pub == nil {
		if cfg.AMQPURL != "" {
			amqpPublisher, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, events.Options{Now: now, NewID: newID, Logger: logger})
			if err != nil {
				return nil, fmt.Errorf("connect event broker: %w", err)
			}
			pub = amqpPublisher
		} else {
			pub = events.LogPublisher{Logger: logger}
		}
	}

	verifier, err := auth.NewVerifier(auth.Options{
		Secret:        []byte(cfg.JWTSecret),
		Issuer:        cfg.JWTIssuer,
		AllowedDomain: cfg.AllowedEmailDomain,
		Now:           now,
	})
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("configure token verifier: %w", err)
	}

	reservationRepo := newReservationRepositoryAdapter(store, store, now)
	roomRepo := newRoomRepositoryAdapter(store, store)
	userRepo := newUserRepositoryAdapter(store)

	stats := application.NewStatisticsService(newStatsSourceAdapter(reservationRepo), now, cfg.Location, cfg.StatsCacheTTL, logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		now:       now,
		store:     store,
		publisher: pub,
		verifier:  verifier,
		users:     userRepo,
		stats:     stats,
	}
	a.auth = application.NewAuthService(verifier, userRepo, logger)
	a.rooms = application.NewRoomServiceWithLogger(roomRepo, stats.Invalidate, logger)
	a.userService = application.NewUserService(userRepo)
	a.reservations = application.NewReservationService(reservationRepo, a.rooms, newID, now, application.ReservationServiceOptions{
		Grid:     cfg.Grid,
		Location: cfg.Location,
		Events:   pub,
		OnChange: stats.Invalidate,
		Logger:   logger,
	})
	a.checkins = application.NewCheckinService(reservationRepo, newID, now, application.CheckinServiceOptions{
		Window:   cfg.CheckinWindow,
		CodeTTL:  cfg.CheckinCodeTTL,
		Location: cfg.Location,
		Events:   pub,
		OnChange: stats.Invalidate,
		Logger:   logger,
	})
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// handler builds the HTTP surface over the services.
func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Reservations: httptransport.NewReservationHandler(a.reservations, a.logger),
		Checkins:     httptransport.NewCheckinHandler(a.checkins, a.logger),
		Rooms:        httptransport.NewRoomHandler(a.rooms, a.logger),
		Users:        httptransport.NewUserHandler(a.userService, a.logger),
		Stats:        httptransport.NewStatsHandler(a.stats, a.logger),
		Session:      httptransport.RequireSession(a.auth, a.logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(a.logger)},
	})
}

// principalFor resolves an active profile by email for commands run on
// behalf of a user.
func (a *app) principalFor(ctx context.Context, email string) (application.Principal, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.Principal{}, fmt.Errorf("no profile for %s: %w", email, application.ErrNotAuthenticated)
		}
		return application.Principal{}, err
	}
	if !user.Active {
		return application.Principal{}, application.ErrInactiveUser
	}
	return application.Principal{UserID: user.ID, Email: user.Email, Name: user.FullName, Role: user.Role}, nil
}

func (a *app) today() booking.Date {
	return booking.DateOf(a.now().In(a.cfg.Location))
}

// sweepNoShows flags today's missed reservations every interval until ctx ends.
func (a *app) sweepNoShows(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are logged by the service.
			_, _ = a.checkins.MarkNoShows(ctx, a.today())
		}
	}
}
