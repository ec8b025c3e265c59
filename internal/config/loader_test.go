package config

import (
	"strings"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		cfg, err := LoadFrom(envOf(map[string]string{"RESERVAS_JWT_SECRET": "secret"}))
		if err != nil {
			t.Fatalf("LoadFrom returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.DBDriver != persistence.DriverSQLite || cfg.DatabaseURL != defaultSQLiteDSN {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		if cfg.Location.String() != "America/Santiago" {
			t.Fatalf("expected Santiago time zone, got %s", cfg.Location)
		}
		if cfg.Grid.Len() != 11 {
			t.Fatalf("expected 11 hourly slots, got %d", cfg.Grid.Len())
		}
		if cfg.CheckinWindow != 15*time.Minute || cfg.CheckinCodeTTL != 2*time.Hour || cfg.StatsCacheTTL != 5*time.Minute {
			t.Fatalf("unexpected durations %+v", cfg)
		}
		if cfg.AMQPURL != "" || cfg.AMQPExchange != "reservas.events" {
			t.Fatalf("unexpected AMQP defaults %q %q", cfg.AMQPURL, cfg.AMQPExchange)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		cfg, err := LoadFrom(envOf(map[string]string{
			"RESERVAS_JWT_SECRET":           "secret",
			"RESERVAS_HTTP_PORT":            "9090",
			"RESERVAS_DB_DRIVER":            "postgres",
			"RESERVAS_DATABASE_URL":         "postgres://reservas@db/reservas",
			"RESERVAS_ALLOWED_EMAIL_DOMAIN": "@Colegio.cl",
			"RESERVAS_TIMEZONE":             "UTC",
			"RESERVAS_GRID_START":           "08:30",
			"RESERVAS_GRID_END":             "13:00",
			"RESERVAS_GRID_STEP":            "45m",
			"RESERVAS_STATS_CACHE_TTL":      "0s",
			"RESERVAS_LOG_FORMAT":           "TEXT",
		}))
		if err != nil {
			t.Fatalf("LoadFrom returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.DBDriver != persistence.DriverPostgres || cfg.AllowedEmailDomain != "colegio.cl" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if cfg.Grid.Len() != 6 || cfg.StatsCacheTTL != 0 || cfg.LogFormat != "text" {
			t.Fatalf("unexpected grid or cache settings %+v", cfg)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		_, err := LoadFrom(envOf(map[string]string{"RESERVAS_DB_DRIVER": "postgres"}))
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "faltan variables de entorno obligatorias: RESERVAS_DATABASE_URL, RESERVAS_JWT_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("collects every invalid value", func(t *testing.T) {
		_, err := LoadFrom(envOf(map[string]string{
			"RESERVAS_JWT_SECRET":     "secret",
			"RESERVAS_HTTP_PORT":      "abc",
			"RESERVAS_TIMEZONE":       "Mars/Base",
			"RESERVAS_GRID_END":       "07:00",
			"RESERVAS_CHECKIN_WINDOW": "-5m",
			"RESERVAS_LOG_LEVEL":      "loud",
		}))
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"RESERVAS_HTTP_PORT", "RESERVAS_TIMEZONE", "RESERVAS_GRID_END", "RESERVAS_CHECKIN_WINDOW", "RESERVAS_LOG_LEVEL"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("reads the process environment", func(t *testing.T) {
		t.Setenv("RESERVAS_JWT_SECRET", "from-env")
		t.Setenv("RESERVAS_HTTP_PORT", "8181")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.JWTSecret != "from-env" || cfg.HTTPPort != 8181 {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})
}
