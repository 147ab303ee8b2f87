package cfg

import (
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version != "" {
		return Version
	}
	return "unknown"
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"feed_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"feed_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"feed_backend" description:"Database name"`

	// Redis configuration
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for session and plan state"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password (optional)"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Index pool configuration
	IndexBaseURL         string `long:"index-base-url" env:"INDEX_BASE_URL" description:"Base URL for published index snapshots"`
	IndexDir             string `long:"index-dir" env:"INDEX_DIR" default:"./indexes" description:"Local directory with index snapshot files"`
	IndexRefreshInterval int    `long:"index-refresh-interval" env:"INDEX_REFRESH_INTERVAL" default:"300" description:"Index snapshot refresh interval in seconds"`
	IndexBuckets         string `long:"index-buckets" env:"INDEX_BUCKETS" default:"global_trending,community_hot" description:"Comma-separated list of buckets refreshed on schedule"`

	// Application configuration
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for scheduled tasks"`
	ParamsFile    string `long:"params-file" env:"PARAMS_FILE" description:"YAML file with feed mixing parameters (optional)"`
	SourceTimeout int    `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"100" description:"Per-source timeout for user context fetches in milliseconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Feed Backend/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:               raw.DBHost,
		DBPort:               raw.DBPort,
		DBUser:               raw.DBUser,
		DBPassword:           raw.DBPassword,
		DBName:               raw.DBName,
		RedisAddr:            raw.RedisAddr,
		RedisPassword:        raw.RedisPassword,
		RedisDB:              raw.RedisDB,
		IndexBaseURL:         raw.IndexBaseURL,
		IndexDir:             raw.IndexDir,
		IndexRefreshInterval: raw.IndexRefreshInterval,
		IndexBuckets:         splitBuckets(raw.IndexBuckets),
		Port:                 raw.Port,
		WorkerCount:          raw.WorkerCount,
		ParamsFile:           raw.ParamsFile,
		SourceTimeout:        raw.SourceTimeout,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing.
// Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func splitBuckets(s string) []string {
	var buckets []string
	for _, b := range strings.Split(s, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			buckets = append(buckets, b)
		}
	}
	return buckets
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
