package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/logging"
)

var version = "dev"

// Context is bound to every command's Run method.
type Context struct {
	context.Context

	Config config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// CLI is the reservas command line.
type CLI struct {
	Version kong.VersionFlag `help:"Muestra la versión."`

	Serve   ServeCmd   `cmd:"" help:"Inicia la API HTTP." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Aplica las migraciones de base de datos."`
	Grid    GridCmd    `cmd:"" help:"Muestra la disponibilidad de una sala en un día."`
	Range   RangeCmd   `cmd:"" help:"Lista las reservas propias en un rango (today, week, month, all)."`
	Sweep   SweepCmd   `cmd:"" help:"Marca como no_show las reservas sin check-in."`
	Stats   StatsCmd   `cmd:"" help:"Muestra las estadísticas del mes."`
	Token   TokenCmd   `cmd:"" help:"Emite un token de sesión para desarrollo."`
	Admin   struct {
		Building BuildingAddCmd `cmd:"" name:"building-add" help:"Registra un edificio."`
		Room     RoomAddCmd     `cmd:"" name:"room-add" help:"Registra una sala."`
		User     UserAddCmd     `cmd:"" name:"user-add" help:"Registra un perfil de usuario."`
	} `cmd:"" help:"Administración del catálogo y los perfiles."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("reservas"),
		kong.Description("Reserva de salas para los establecimientos del distrito escolar."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(logging.Options{
		Format: logging.Format(cfg.LogFormat),
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&Context{
		Context: logging.ContextWithLogger(ctx, logger),
		Config:  cfg,
		Logger:  logger,
		Out:     os.Stdout,
	})
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}
