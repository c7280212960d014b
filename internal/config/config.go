package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mini-rodalies-3d/tracker/internal/mapsync"
)

var validate = validator.New()

// Config holds all configuration for the tracker
type Config struct {
	// HTTP
	Port        string   `validate:"required,numeric"`
	CORSOrigins []string `validate:"dive,required"`

	// Storage
	DatabaseDriver string `validate:"oneof=sqlite postgres"`
	SQLitePath     string `validate:"required_if=DatabaseDriver sqlite"`
	DatabaseURL    string `validate:"required_if=DatabaseDriver postgres"`

	// Tracking
	// TrackAPIURL points sessions at a remote tracking API; empty serves
	// snapshots straight from the store
	TrackAPIURL    string        `validate:"omitempty,url"`
	FetchTimeout   time.Duration `validate:"gte=0"`
	MapLoadTimeout time.Duration `validate:"gte=0"`
	ProbeMapAssets bool
	MapStyleFile   string
	MapStyle       mapsync.Style

	// Realtime
	GTFSVehiclePositionsURL string        `validate:"omitempty,url"`
	PollInterval            time.Duration `validate:"gt=0"`
}

// LoadEnvFiles loads a base .env file and then overrides it with .env.local.
// Missing files are ignored.
func LoadEnvFiles(dir string) {
	if dir == "" {
		dir = "."
	}
	_ = godotenv.Load(dir + "/.env")
	_ = godotenv.Overload(dir + "/.env.local")
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		// HTTP
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		// Storage
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		SQLitePath:     getEnv("SQLITE_DATABASE", "data/tracker.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		// Tracking
		TrackAPIURL:    getEnv("TRACK_API_URL", ""),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 0),
		MapLoadTimeout: getEnvDuration("MAP_LOAD_TIMEOUT", 0),
		ProbeMapAssets: getEnvBool("MAP_PROBE_RESOURCES", false),
		MapStyleFile:   getEnv("MAP_STYLE_FILE", ""),

		// Realtime
		GTFSVehiclePositionsURL: getEnv("GTFS_VEHICLE_POSITIONS_URL", ""),
		PollInterval:            time.Duration(getEnvInt("POLL_INTERVAL", 30)) * time.Second,
	}

	style, err := LoadStyle(cfg.MapStyleFile)
	if err != nil {
		return nil, err
	}
	cfg.MapStyle = style

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadStyle reads a YAML map style on top of the defaults. An empty path
// returns the defaults.
func LoadStyle(path string) (mapsync.Style, error) {
	style := mapsync.DefaultStyle()
	if path == "" {
		return style, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return style, fmt.Errorf("failed to read map style %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return style, fmt.Errorf("failed to parse map style %s: %w", path, err)
	}
	if err := validate.Struct(style); err != nil {
		return style, fmt.Errorf("invalid map style %s: %w", path, err)
	}
	return style, nil
}

// UsesRemoteAPI reports whether sessions fetch over HTTP
func (c *Config) UsesRemoteAPI() bool {
	return c.TrackAPIURL != ""
}

// PollingEnabled reports whether a realtime feed is configured
func (c *Config) PollingEnabled() bool {
	return c.GTFSVehiclePositionsURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s", "1m30s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
