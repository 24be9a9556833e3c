package config

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Snapshot store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Screenshot sources.
const (
	CaptureChrome = "chrome"
	CaptureFile   = "file"
)

// Config holds all application configuration.
type Config struct {
	Addr     string
	GRPCPort int

	Interval     time.Duration
	ErrorBackoff time.Duration

	Store     string
	StatePath string
	DBPath    string
	RedisAddr string
	RedisKey  string

	GoogleAPIKey  string
	OracleModel   string
	OracleURL     string
	OracleTimeout time.Duration

	Capture     string
	CaptureURL  string
	CaptureFile string

	PopupFile  string
	WebhookURL string
	RulesPath  string

	AdminTokenHash string
	AutoStart      bool
	Debug          bool
	Trace          bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) *Config {
	dataDir := getDefaultDataDir()
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("CYBERPET_ADDR", ":8000")
	cfg.GRPCPort = getEnvInt("CYBERPET_GRPC", 9000)
	cfg.Interval = getEnvDuration("CYBERPET_INTERVAL", 30*time.Second)
	cfg.ErrorBackoff = getEnvDuration("CYBERPET_BACKOFF", 5*time.Second)
	cfg.Store = getEnv("CYBERPET_STORE", StoreFile)
	cfg.StatePath = getEnv("CYBERPET_STATE_PATH", filepath.Join(dataDir, "pet_state.json"))
	cfg.DBPath = getEnv("CYBERPET_DB", filepath.Join(dataDir, "cyberpet.db"))
	cfg.RedisAddr = getEnv("CYBERPET_REDIS_ADDR", "localhost:6379")
	cfg.RedisKey = getEnv("CYBERPET_REDIS_KEY", "cyberpet:pet_state")
	cfg.GoogleAPIKey = getEnv("GOOGLE_API_KEY", "")
	cfg.OracleModel = getEnv("CYBERPET_ORACLE_MODEL", "gemini-2.5-flash")
	cfg.OracleURL = getEnv("CYBERPET_ORACLE_URL", "")
	cfg.OracleTimeout = getEnvDuration("CYBERPET_ORACLE_TIMEOUT", 60*time.Second)
	cfg.Capture = getEnv("CYBERPET_CAPTURE", CaptureFile)
	cfg.CaptureURL = getEnv("CYBERPET_CAPTURE_URL", "")
	cfg.CaptureFile = getEnv("CYBERPET_CAPTURE_FILE", filepath.Join(dataDir, "screen.png"))
	cfg.PopupFile = getEnv("CYBERPET_POPUP_FILE", "popup_trigger.json")
	cfg.WebhookURL = getEnv("CYBERPET_WEBHOOK_URL", "")
	cfg.RulesPath = getEnv("CYBERPET_RULES", "")
	cfg.AdminTokenHash = getEnv("CYBERPET_ADMIN_TOKEN_HASH", "")
	cfg.AutoStart = getEnvBool("CYBERPET_AUTOSTART", true)
	cfg.Debug = getEnvBool("CYBERPET_DEBUG", false)
	cfg.Trace = getEnvBool("CYBERPET_TRACE", false)

	// Command Line Flags (Override Env)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.IntVar(&cfg.GRPCPort, "grpc", cfg.GRPCPort, "gRPC health server port")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Screen check interval")
	fs.DurationVar(&cfg.ErrorBackoff, "backoff", cfg.ErrorBackoff, "Wait after a failed monitoring cycle")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Pet state store: file, sqlite or redis")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "Path to the pet state JSON file")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the redis store")
	fs.StringVar(&cfg.Capture, "capture", cfg.Capture, "Screenshot source: chrome or file")
	fs.StringVar(&cfg.CaptureURL, "capture-url", cfg.CaptureURL, "Page captured by the chrome source")
	fs.StringVar(&cfg.CaptureFile, "capture-file", cfg.CaptureFile, "PNG read by the file source")
	fs.StringVar(&cfg.PopupFile, "popup-file", cfg.PopupFile, "Trigger file watched by the desktop popup")
	fs.StringVar(&cfg.WebhookURL, "webhook", cfg.WebhookURL, "Alert webhook URL (empty to disable)")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "YAML heuristics rules file")
	fs.BoolVar(&cfg.AutoStart, "autostart", cfg.AutoStart, "Start monitoring on boot")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Export traces to stdout")

	if err := fs.Parse(args); err != nil {
		slog.Warn("Invalid flags, using defaults", "error", err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

// getDefaultDataDir returns ~/.cyberpet, creating it if needed.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not get user home directory, using current dir", "error", err)
		return "."
	}

	dir := filepath.Join(home, ".cyberpet")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("Could not create .cyberpet directory, using current dir", "error", err)
		return "."
	}
	return dir
}
