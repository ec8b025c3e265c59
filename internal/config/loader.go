package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

const defaultSQLiteDSN = "file:reservas.db?_pragma=busy_timeout(5000)"

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort        int
	ShutdownTimeout time.Duration

	DBDriver    persistence.Driver
	DatabaseURL string

	JWTSecret          string
	JWTIssuer          string
	AllowedEmailDomain string

	Location *time.Location
	Grid     booking.Grid

	CheckinWindow  time.Duration
	CheckinCodeTTL time.Duration
	StatsCacheTTL  time.Duration

	AMQPURL      string
	AMQPExchange string

	LogFormat string
	LogLevel  string
	LogFile   string
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration from getenv. Every missing or invalid
// variable is collected and reported in a single error.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		ShutdownTimeout: 10 * time.Second,
		DBDriver:        persistence.DriverSQLite,
		CheckinWindow:   15 * time.Minute,
		CheckinCodeTTL:  2 * time.Hour,
		StatsCacheTTL:   5 * time.Minute,
		AMQPExchange:    "reservas.events",
	}

	var missing, invalid []string
	lookup := func(key string) string { return strings.TrimSpace(getenv(key)) }
	duration := func(key string, target *time.Duration, allowZero bool) {
		value := lookup(key)
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 || (d == 0 && !allowZero) {
			invalid = append(invalid, key)
			return
		}
		*target = d
	}

	if value := lookup("RESERVAS_HTTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "RESERVAS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	duration("RESERVAS_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout, false)

	if value := lookup("RESERVAS_DB_DRIVER"); value != "" {
		driver, err := persistence.ParseDriver(value)
		if err != nil {
			invalid = append(invalid, "RESERVAS_DB_DRIVER")
		} else {
			cfg.DBDriver = driver
		}
	}
	cfg.DatabaseURL = lookup("RESERVAS_DATABASE_URL")
	if cfg.DatabaseURL == "" {
		if cfg.DBDriver == persistence.DriverPostgres {
			missing = append(missing, "RESERVAS_DATABASE_URL")
		} else {
			cfg.DatabaseURL = defaultSQLiteDSN
		}
	}

	if cfg.JWTSecret = lookup("RESERVAS_JWT_SECRET"); cfg.JWTSecret == "" {
		missing = append(missing, "RESERVAS_JWT_SECRET")
	}
	cfg.JWTIssuer = lookup("RESERVAS_JWT_ISSUER")
	cfg.AllowedEmailDomain = strings.ToLower(strings.TrimPrefix(lookup("RESERVAS_ALLOWED_EMAIL_DOMAIN"), "@"))

	tz := lookup("RESERVAS_TIMEZONE")
	if tz == "" {
		tz = "America/Santiago"
	}
	if loc, err := time.LoadLocation(tz); err != nil {
		invalid = append(invalid, "RESERVAS_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	gridStart, gridEnd, gridStep := "08:00", "19:00", time.Hour
	if value := lookup("RESERVAS_GRID_START"); value != "" {
		gridStart = value
	}
	if value := lookup("RESERVAS_GRID_END"); value != "" {
		gridEnd = value
	}
	duration("RESERVAS_GRID_STEP", &gridStep, false)
	if grid, key := parseGrid(gridStart, gridEnd, gridStep); key != "" {
		invalid = append(invalid, key)
	} else {
		cfg.Grid = grid
	}

	duration("RESERVAS_CHECKIN_WINDOW", &cfg.CheckinWindow, false)
	duration("RESERVAS_CHECKIN_CODE_TTL", &cfg.CheckinCodeTTL, false)
	duration("RESERVAS_STATS_CACHE_TTL", &cfg.StatsCacheTTL, true)

	cfg.AMQPURL = lookup("RESERVAS_AMQP_URL")
	if value := lookup("RESERVAS_AMQP_EXCHANGE"); value != "" {
		cfg.AMQPExchange = value
	}

	cfg.LogFormat = strings.ToLower(lookup("RESERVAS_LOG_FORMAT"))
	switch cfg.LogFormat {
	case "", "json", "text":
	default:
		invalid = append(invalid, "RESERVAS_LOG_FORMAT")
	}
	cfg.LogLevel = strings.ToLower(lookup("RESERVAS_LOG_LEVEL"))
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "RESERVAS_LOG_LEVEL")
	}
	cfg.LogFile = lookup("RESERVAS_LOG_FILE")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores de variables de entorno no válidos: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// parseGrid returns the grid or the name of the offending variable.
func parseGrid(start, end string, step time.Duration) (booking.Grid, string) {
	from, err := booking.ParseClock(start)
	if err != nil {
		return booking.Grid{}, "RESERVAS_GRID_START"
	}
	to, err := booking.ParseClock(end)
	if err != nil {
		return booking.Grid{}, "RESERVAS_GRID_END"
	}
	if to <= from {
		return booking.Grid{}, "RESERVAS_GRID_END"
	}
	grid, err := booking.NewGrid(from, to, step)
	if err != nil {
		return booking.Grid{}, "RESERVAS_GRID_STEP"
	}
	return grid, ""
}
