package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/stock-api/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const DefaultFMPBaseURL = "https://financialmodelingprep.com/stable"

type Config struct {
	ServerPort       string
	FMPAPIKey        string
	FMPBaseURL       string
	UpstreamTimeout  time.Duration
	MoversInterval   time.Duration
	NewsInterval     time.Duration
	NewsFetchLimit   int
	NewsDefaultLimit int
	CORSAllowOrigins string
	LogLevel         string
	LogFormat        string
	DatabaseURL      string
	Database         DatabaseConfig
}

// DatabaseConfig holds connection pool settings for the optional refresh event log
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// DefaultDatabaseConfig returns pool settings sized for a single low-traffic writer
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// LoadConfig reads the .env file (if any) and the process environment.
// A missing FMP_API_KEY or a malformed numeric/duration value is a configuration error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8000"),
		FMPAPIKey:        strings.TrimSpace(getEnv("FMP_API_KEY", "")),
		FMPBaseURL:       strings.TrimRight(getEnv("FMP_BASE_URL", DefaultFMPBaseURL), "/"),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Database:         DefaultDatabaseConfig(),
	}

	if cfg.FMPAPIKey == "" {
		return nil, configError("MISSING_API_KEY", "FMP_API_KEY is required", nil)
	}
	// Credentialed CORS cannot be combined with a wildcard origin
	for _, origin := range strings.Split(cfg.CORSAllowOrigins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return nil, configError("INVALID_CORS_ORIGIN", "CORS_ALLOW_ORIGINS must list explicit origins, not *", nil)
		}
	}

	var err error
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.MoversInterval, err = getDuration("MOVERS_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.NewsInterval, err = getDuration("NEWS_REFRESH_INTERVAL", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NewsFetchLimit, err = getInt("NEWS_FETCH_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.NewsDefaultLimit, err = getInt("NEWS_DEFAULT_LIMIT", 20); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the global logrus logger
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, configError("INVALID_DURATION", key+" must be a Go duration such as 15m", err)
	}
	if d <= 0 {
		return 0, configError("INVALID_DURATION", key+" must be positive", nil)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, configError("INVALID_INTEGER", key+" must be a positive integer", err)
	}
	return n, nil
}

func configError(code, message string, cause error) *shared.ServiceError {
	return shared.NewServiceError(shared.ErrorCategoryConfiguration, code, message, "config", "LoadConfig", false, cause)
}
