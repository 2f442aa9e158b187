// Package config resolves all runtime settings once at startup. Nothing
// outside this package reads the environment after Load returns, except the
// integration registry's declared env-var probes.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable runtime configuration.
type Config struct {
	// Provider credentials. Empty means the integration is unconfigured.
	OddsAPIKey        string
	PlaybookAPIKey    string
	BallDontLieAPIKey string
	WeatherAPIKey     string
	FREDAPIKey        string
	FinnhubKey        string
	SerpAPIKey        string
	TwitterBearer     string
	AstronomyAppID    string
	AstronomySecret   string
	NOAABaseURL       string
	WhopAPIKey        string

	// Infra endpoints.
	DatabaseURL string
	RedisURL    string

	// Filesystem roots.
	DataDir     string
	SnapshotDir string

	// HTTP surface.
	ListenAddr string
	APIAuthKey string

	// Behavior flags.
	EnableDemo    bool
	BlockDoubtful bool
	BlockGTD      bool
	LogLevel      string

	// Budgets.
	SlateDeadline time.Duration
	FetchTimeout  time.Duration
	FetchRetries  int
	FetchBackoff  time.Duration
	FanoutWorkers int
	MonitorEvery  time.Duration
	SnapshotKeep  int
}

// Load reads .env (when present) and the environment into a Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		OddsAPIKey:        getenv("ODDS_API_KEY"),
		PlaybookAPIKey:    getenv("PLAYBOOK_API_KEY"),
		BallDontLieAPIKey: getenv("BALLDONTLIE_API_KEY", "BDL_API_KEY"),
		WeatherAPIKey:     getenv("WEATHER_API_KEY"),
		FREDAPIKey:        getenv("FRED_API_KEY"),
		FinnhubKey:        getenv("FINNHUB_KEY"),
		SerpAPIKey:        getenv("SERPAPI_KEY"),
		TwitterBearer:     getenv("TWITTER_BEARER"),
		AstronomyAppID:    getenv("ASTRONOMY_API_ID"),
		AstronomySecret:   getenv("ASTRONOMY_API_SECRET"),
		NOAABaseURL:       getenvDefault("NOAA_BASE_URL", "https://services.swpc.noaa.gov"),
		WhopAPIKey:        getenv("WHOP_API_KEY"),

		DatabaseURL: getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL"),

		ListenAddr: getenvDefault("LISTEN_ADDR", ":8090"),
		APIAuthKey: getenv("API_AUTH_KEY"),

		EnableDemo:    getenvBool("ENABLE_DEMO"),
		BlockDoubtful: getenvBool("BLOCK_DOUBTFUL"),
		BlockGTD:      getenvBool("BLOCK_GTD"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),

		SlateDeadline: getenvDuration("SLATE_DEADLINE", 30*time.Second),
		FetchTimeout:  getenvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchRetries:  getenvInt("FETCH_RETRIES", 2),
		FetchBackoff:  getenvDuration("FETCH_BACKOFF", 500*time.Millisecond),
		FanoutWorkers: getenvInt("FANOUT_WORKERS", 16),
		MonitorEvery:  getenvDuration("MONITOR_INTERVAL", 5*time.Minute),
		SnapshotKeep:  getenvInt("SNAPSHOT_KEEP", 96),
	}

	cfg.DataDir = getenvDefault("RAILWAY_VOLUME_MOUNT_PATH", "data")
	cfg.SnapshotDir = filepath.Join(cfg.DataDir, "snapshots")

	// Per-call timeout never exceeds the cap even if misconfigured.
	if cfg.FetchTimeout > 15*time.Second {
		cfg.FetchTimeout = 15 * time.Second
	}
	return cfg
}

// SecretValues lists every configured credential, for redactor seeding.
func (c *Config) SecretValues() []string {
	return []string{
		c.OddsAPIKey, c.PlaybookAPIKey, c.BallDontLieAPIKey, c.WeatherAPIKey,
		c.FREDAPIKey, c.FinnhubKey, c.SerpAPIKey, c.TwitterBearer,
		c.AstronomyAppID, c.AstronomySecret, c.WhopAPIKey, c.APIAuthKey,
		c.DatabaseURL, c.RedisURL,
	}
}

func getenv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func getenvDefault(name, fallback string) string {
	if v := getenv(name); v != "" {
		return v
	}
	return fallback
}

func getenvBool(name string) bool {
	v := strings.ToLower(getenv(name))
	return v == "1" || v == "true" || v == "yes"
}

func getenvInt(name string, fallback int) int {
	if v := getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(name string, fallback time.Duration) time.Duration {
	if v := getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
