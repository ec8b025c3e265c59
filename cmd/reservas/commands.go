package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/cli"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/sqlstore"
)

// withApp opens the application for the duration of fn.
func withApp(rc *Context, fn func(a *app) error) (err error) {
	a, err := openApp(rc, rc.Config, rc.Logger, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct {
	SkipMigrations bool          `help:"No aplica migraciones al iniciar."`
	SweepInterval  time.Duration `help:"Intervalo del barrido de no-shows; 0 lo desactiva." default:"5m"`
}

func (c *ServeCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		if !c.SkipMigrations {
			if err := runDatabaseMigrations(rc, a.store, rc.Logger); err != nil {
				return err
			}
		}
		if c.SweepInterval > 0 {
			go a.sweepNoShows(rc, c.SweepInterval)
		}

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", rc.Config.HTTPPort),
			Handler:           a.handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-rc.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), rc.Config.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rc.Logger.Error("failed to shutdown server", "error", err)
			}
		}()

		rc.Logger.Info("reservation API listening", "addr", server.Addr, "driver", string(rc.Config.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server encountered error: %w", err)
		}
		rc.Logger.Info("reservation API stopped")
		return nil
	})
}

// MigrateCmd applies pending migrations or reports their state.
type MigrateCmd struct {
	Status bool `help:"Solo muestra las migraciones aplicadas y pendientes."`
}

func (c *MigrateCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		if c.Status {
			status, err := a.store.MigrationStatus(rc)
			if err != nil {
				return err
			}
			fmt.Fprintf(rc.Out, "versión actual: %s\n", valueOr(status.CurrentVersion, "ninguna"))
			fmt.Fprintf(rc.Out, "aplicadas: %d\n", len(status.Applied))
			for _, m := range status.Pending {
				fmt.Fprintf(rc.Out, "pendiente: %s %s\n", m.Version, m.Description)
			}
			return nil
		}
		return runDatabaseMigrations(rc, a.store, rc.Logger)
	})
}

func runDatabaseMigrations(ctx context.Context, store *sqlstore.Store, logger *slog.Logger) error {
	logger.InfoContext(ctx, "checking current database schema version")
	status, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("read migration status: %w", err)
	}
	if len(status.Pending) == 0 {
		logger.InfoContext(ctx, "database schema is up to date", "version", status.CurrentVersion)
		return nil
	}

	logger.InfoContext(ctx, "executing database migrations", "pending", len(status.Pending), "from_version", status.CurrentVersion)
	applied, err := store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version := status.CurrentVersion
	if len(applied) > 0 {
		version = applied[len(applied)-1].Version
	}
	logger.InfoContext(ctx, "database migrations completed successfully", "applied", len(applied), "version", version)
	return nil
}

// GridCmd prints one room's availability on one day.
type GridCmd struct {
	Room string `required:"" help:"Identificador de la sala."`
	Date string `help:"Fecha YYYY-MM-DD; hoy por defecto."`
	As   string `required:"" help:"Correo del usuario que consulta."`
}

func (c *GridCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		principal, err := a.principalFor(rc, c.As)
		if err != nil {
			return err
		}
		date, err := dateOrToday(a, c.Date)
		if err != nil {
			return err
		}
		room, err := a.rooms.GetRoom(rc, c.Room)
		if err != nil {
			return err
		}
		availability, err := a.reservations.GetAvailabilityGrid(rc, application.GridParams{
			Principal: principal,
			Date:      date,
			RoomID:    room.ID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, cli.RenderAvailability(room.Name, date, availability))
		return nil
	})
}

// RangeCmd lists the caller's reservations in a named range.
type RangeCmd struct {
	Name string `arg:"" optional:"" default:"week" enum:"today,week,month,all" help:"Rango: today, week, month o all."`
	As   string `required:"" help:"Correo del usuario que consulta."`
}

func (c *RangeCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		principal, err := a.principalFor(rc, c.As)
		if err != nil {
			return err
		}
		name := booking.ParseRangeName(c.Name)
		entries, window, err := a.reservations.GetReservationsForRange(rc, application.RangeParams{
			Principal: principal,
			Range:     name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, cli.RenderEntries(cli.RenderRange(name, window), entries))
		return nil
	})
}

// SweepCmd marks no-shows for one day.
type SweepCmd struct {
	Date string `help:"Fecha YYYY-MM-DD; hoy por defecto."`
}

func (c *SweepCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		date, err := dateOrToday(a, c.Date)
		if err != nil {
			return err
		}
		result, err := a.checkins.MarkNoShows(rc, date)
		fmt.Fprintf(rc.Out, "%s: %d marcadas como no_show, %d fallidas\n", date, result.Succeeded, result.Failed)
		return err
	})
}

// StatsCmd prints the administrator overview.
type StatsCmd struct {
	Month string `help:"Mes YYYY-MM; el actual por defecto."`
	As    string `required:"" help:"Correo del administrador."`
}

func (c *StatsCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		principal, err := a.principalFor(rc, c.As)
		if err != nil {
			return err
		}
		month := a.today()
		if c.Month != "" {
			if month, err = booking.ParseDate(c.Month + "-01"); err != nil {
				return fmt.Errorf("mes no válido %q: %w", c.Month, err)
			}
		}
		overview, err := a.stats.Overview(rc, application.StatsParams{Principal: principal, Month: month})
		if err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, cli.RenderOverview(month, overview))
		return nil
	})
}

// TokenCmd signs a session token for an existing profile.
type TokenCmd struct {
	Email string        `arg:"" help:"Correo del perfil."`
	TTL   time.Duration `help:"Vigencia del token." default:"12h"`
}

func (c *TokenCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		principal, err := a.principalFor(rc, c.Email)
		if err != nil {
			return err
		}
		token, err := a.verifier.Issue(principal.UserID, principal.Email, principal.Name, c.TTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, token)
		return nil
	})
}

// BuildingAddCmd registers a building.
type BuildingAddCmd struct {
	Name    string `arg:"" help:"Nombre del edificio."`
	Address string `help:"Dirección."`
}

func (c *BuildingAddCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		building := persistence.Building{ID: uuid.NewString(), Name: strings.TrimSpace(c.Name), Active: true}
		if address := strings.TrimSpace(c.Address); address != "" {
			building.Address = &address
		}
		if err := a.store.CreateBuilding(rc, building); err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, building.ID)
		return nil
	})
}

// RoomAddCmd registers a room in a building.
type RoomAddCmd struct {
	Building  string   `required:"" help:"Identificador del edificio."`
	Name      string   `arg:"" help:"Nombre de la sala."`
	Capacity  int      `required:"" help:"Capacidad."`
	Equipment []string `help:"Equipamiento, separado por comas."`
}

func (c *RoomAddCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		room := persistence.Room{
			ID:         uuid.NewString(),
			BuildingID: c.Building,
			Name:       strings.TrimSpace(c.Name),
			Capacity:   c.Capacity,
			Equipment:  c.Equipment,
			Active:     true,
		}
		if err := a.store.CreateRoom(rc, room); err != nil {
			return err
		}
		a.stats.Invalidate()
		fmt.Fprintln(rc.Out, room.ID)
		return nil
	})
}

// UserAddCmd registers a staff profile.
type UserAddCmd struct {
	Email string `arg:"" help:"Correo institucional."`
	Name  string `required:"" help:"Nombre completo."`
	Role  string `default:"funcionario" enum:"super_admin,admin,subdirector,funcionario" help:"Rol."`
	Area  string `help:"Área o departamento."`
}

func (c *UserAddCmd) Run(rc *Context) error {
	return withApp(rc, func(a *app) error {
		user := persistence.User{
			ID:       uuid.NewString(),
			Email:    strings.ToLower(strings.TrimSpace(c.Email)),
			FullName: strings.TrimSpace(c.Name),
			Role:     string(booking.ParseRole(c.Role)),
			Active:   true,
		}
		if area := strings.TrimSpace(c.Area); area != "" {
			user.Area = &area
		}
		if err := a.store.CreateUser(rc, user); err != nil {
			return err
		}
		fmt.Fprintln(rc.Out, user.ID)
		return nil
	})
}

func dateOrToday(a *app, value string) (booking.Date, error) {
	if strings.TrimSpace(value) == "" {
		return a.today(), nil
	}
	date, err := booking.ParseDate(value)
	if err != nil {
		return booking.Date{}, fmt.Errorf("fecha no válida %q: %w", value, err)
	}
	return date, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
