package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BTreeMap/MoodLens/internal/api"
	"github.com/BTreeMap/MoodLens/internal/lockfile"
	"github.com/BTreeMap/MoodLens/internal/notify"
	"github.com/BTreeMap/MoodLens/internal/store"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MoodLens state data
	DefaultStateDir = "/var/lib/moodlens"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "moodlens.db"
)

// Config holds environment configuration
type Config struct {
	StateDir            string        `env:"MOODLENS_STATE_DIR" envDefault:"/var/lib/moodlens"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	APIAddr             string        `env:"API_ADDR" envDefault:":8080"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"debug"`
	TwilioAccountSID    string        `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken     string        `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber    string        `env:"TWILIO_FROM_NUMBER"`
	CrisisAlertTo       string        `env:"CRISIS_ALERT_TO"`
	CrisisAlertsEnabled bool          `env:"CRISIS_ALERTS_ENABLED" envDefault:"true"`
	AlertPollInterval   time.Duration `env:"CRISIS_ALERT_POLL_INTERVAL" envDefault:"5s"`
	OTelEndpoint        string        `env:"MOODLENS_OTEL_ENDPOINT"`

	// DSN is DatabaseURL or, when unset, the SQLite file in StateDir.
	DSN string
}

func main() {
	config, err := loadEnvironmentConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	config, err = parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid flags: %v\n", err)
		os.Exit(2)
	}

	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	initializeLogger(level)

	if err := ensureDirectoriesExist(config.DSN); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := acquireStateLock(config.DSN)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	storeOpts := buildStoreOptions(config)
	notifyOpts := buildNotifyOptions(config)
	apiOpts := buildAPIOptions(config)

	slog.Info("Bootstrapping MoodLens with configured modules")
	slog.Debug("Final configuration",
		"state_dir", config.StateDir,
		"dsn_type", store.DetectDSNType(config.DSN),
		"api_addr", config.APIAddr,
		"crisis_alerts", config.CrisisAlertsEnabled,
		"tracing", config.OTelEndpoint != "",
		"twilio_configured", config.TwilioAccountSID != "" && config.TwilioAuthToken != "")
	if err := api.Run(storeOpts, notifyOpts, apiOpts); err != nil {
		slog.Error("MoodLens failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("MoodLens exited successfully")
}

// initializeLogger sets up structured logging at the given level
func initializeLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// loadEnvironmentConfig loads configuration from the environment and an optional .env file
func loadEnvironmentConfig() (Config, error) {
	// .env is optional; real environment variables take precedence.
	envFileLoaded := godotenv.Load() == nil

	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	config.DSN = config.DatabaseURL
	if config.DSN == "" {
		config.DSN = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	slog.Debug("environment variables loaded",
		"env_file", envFileLoaded,
		"MOODLENS_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"API_ADDR", config.APIAddr,
		"CRISIS_ALERTS_ENABLED", config.CrisisAlertsEnabled)
	return config, nil
}

// parseCommandLineFlags applies command line overrides on top of the environment configuration
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Config, error) {
	stateDir := fs.String("state-dir", config.StateDir, "state directory for MoodLens data (overrides $MOODLENS_STATE_DIR)")
	dbDSN := fs.String("db-dsn", config.DSN, "database DSN, a Postgres URL or SQLite path (overrides $DATABASE_URL)")
	apiAddr := fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)")
	logLevel := fs.String("log-level", config.LogLevel, "log level: debug, info, warn or error (overrides $LOG_LEVEL)")
	otelEndpoint := fs.String("otel-endpoint", config.OTelEndpoint, "OTLP/HTTP trace collector URL, empty disables tracing (overrides $MOODLENS_OTEL_ENDPOINT)")
	alerts := fs.Bool("crisis-alerts", config.CrisisAlertsEnabled, "queue and deliver crisis alerts (overrides $CRISIS_ALERTS_ENABLED)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// A new state directory moves the default SQLite file with it.
	defaultDSN := filepath.Join(config.StateDir, DefaultDBFileName)
	if *dbDSN == config.DSN && config.DSN == defaultDSN && *stateDir != config.StateDir {
		*dbDSN = filepath.Join(*stateDir, DefaultDBFileName)
	}

	config.StateDir = *stateDir
	config.DSN = *dbDSN
	config.APIAddr = *apiAddr
	config.LogLevel = *logLevel
	config.CrisisAlertsEnabled = *alerts
	config.OTelEndpoint = *otelEndpoint
	return config, nil
}

// ensureDirectoriesExist creates the parent directory of a file-based DSN
func ensureDirectoriesExist(dsn string) error {
	if dsn == "" || store.DetectDSNType(dsn) == store.DSNTypePostgres {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}
	return nil
}

// acquireStateLock locks the directory holding a SQLite database. Postgres
// deployments may run several instances and take no lock.
func acquireStateLock(dsn string) (*lockfile.Lock, error) {
	if dsn == "" || store.DetectDSNType(dsn) == store.DSNTypePostgres {
		return nil, nil
	}
	return lockfile.Acquire(filepath.Dir(dsn))
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(config Config) []store.Option {
	if config.DSN == "" {
		slog.Debug("No database DSN provided, will use in-memory store")
		return nil
	}
	if store.DetectDSNType(config.DSN) == store.DSNTypePostgres {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return []store.Option{store.WithPostgresDSN(config.DSN)}
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", config.DSN)
	return []store.Option{store.WithSQLiteDSN(config.DSN)}
}

// buildNotifyOptions constructs Twilio notifier options
func buildNotifyOptions(config Config) []notify.Option {
	var opts []notify.Option
	if config.TwilioAccountSID != "" {
		opts = append(opts, notify.WithAccountSID(config.TwilioAccountSID))
	}
	if config.TwilioAuthToken != "" {
		opts = append(opts, notify.WithAuthToken(config.TwilioAuthToken))
	}
	if config.TwilioFromNumber != "" {
		opts = append(opts, notify.WithFromNumber(config.TwilioFromNumber))
	}
	if config.CrisisAlertTo != "" {
		opts = append(opts, notify.WithAlertTo(config.CrisisAlertTo))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(config Config) []api.Option {
	opts := []api.Option{api.WithCrisisAlerts(config.CrisisAlertsEnabled)}
	if config.APIAddr != "" {
		opts = append(opts, api.WithAddr(config.APIAddr))
	}
	if config.AlertPollInterval > 0 {
		opts = append(opts, api.WithAlertPollInterval(config.AlertPollInterval))
	}
	if config.OTelEndpoint != "" {
		opts = append(opts, api.WithOTelEndpoint(config.OTelEndpoint))
	}
	return opts
}
