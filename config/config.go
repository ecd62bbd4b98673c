package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var (
	ErrMissingJWTSecret = errors.New("missing JWT_SECRET")
	ErrMissingAuthURL   = errors.New("missing AUTH_URL")
	ErrUnknownDriver    = errors.New("unknown STORAGE_DRIVER")
)

// Config is the process configuration of the server
type Config struct {
	HTTPPort  int
	GopsAddr  string
	JWTSecret string
	TokenTTL  time.Duration

	DashboardURL string

	AuthURL    string
	AuthAPIKey string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string
	PGPoolMax  int

	RedisAddr     string
	RedisPassword string

	StorageDriver     string
	StorageQuotaBytes int

	WorkspaceIdle time.Duration

	LogLevel  string
	LogFormat string
}

type configFile struct {
	Server struct {
		HTTPPort     int    `yaml:"http_port"`
		GopsAddr     string `yaml:"gops_addr"`
		DashboardURL string `yaml:"dashboard_url"`
		TokenTTLHrs  int    `yaml:"token_ttl_hours"`
	} `yaml:"server"`
	Auth struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
	} `yaml:"auth"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		PoolMax  int    `yaml:"pool_max"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	Storage struct {
		Driver     string `yaml:"driver"`
		QuotaBytes int    `yaml:"quota_bytes"`
	} `yaml:"storage"`
	Workspace struct {
		IdleMinutes int `yaml:"idle_minutes"`
	} `yaml:"workspace"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		HTTPPort:          9090,
		GopsAddr:          ":6060",
		TokenTTL:          30 * 24 * time.Hour,
		DashboardURL:      "http://localhost:3000",
		PGHost:            "localhost",
		PGPort:            5432,
		PGPoolMax:         10,
		RedisAddr:         "localhost:6379",
		StorageDriver:     DriverRedis,
		StorageQuotaBytes: 5 << 20,
		WorkspaceIdle:     2 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load reads defaults, then the YAML file at path when it exists, then the
// environment
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.merge(raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) merge(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Server.HTTPPort > 0 {
		c.HTTPPort = f.Server.HTTPPort
	}
	if f.Server.GopsAddr != "" {
		c.GopsAddr = f.Server.GopsAddr
	}
	if f.Server.DashboardURL != "" {
		c.DashboardURL = f.Server.DashboardURL
	}
	if f.Server.TokenTTLHrs > 0 {
		c.TokenTTL = time.Duration(f.Server.TokenTTLHrs) * time.Hour
	}
	if f.Auth.URL != "" {
		c.AuthURL = f.Auth.URL
	}
	if f.Auth.APIKey != "" {
		c.AuthAPIKey = f.Auth.APIKey
	}
	if f.Postgres.Host != "" {
		c.PGHost = f.Postgres.Host
	}
	if f.Postgres.Port > 0 {
		c.PGPort = f.Postgres.Port
	}
	if f.Postgres.User != "" {
		c.PGUser = f.Postgres.User
	}
	if f.Postgres.Password != "" {
		c.PGPassword = f.Postgres.Password
	}
	if f.Postgres.Database != "" {
		c.PGDatabase = f.Postgres.Database
	}
	if f.Postgres.PoolMax > 0 {
		c.PGPoolMax = f.Postgres.PoolMax
	}
	if f.Redis.Addr != "" {
		c.RedisAddr = f.Redis.Addr
	}
	if f.Redis.Password != "" {
		c.RedisPassword = f.Redis.Password
	}
	if f.Storage.Driver != "" {
		c.StorageDriver = f.Storage.Driver
	}
	if f.Storage.QuotaBytes > 0 {
		c.StorageQuotaBytes = f.Storage.QuotaBytes
	}
	if f.Workspace.IdleMinutes > 0 {
		c.WorkspaceIdle = time.Duration(f.Workspace.IdleMinutes) * time.Minute
	}
	if f.Log.Level != "" {
		c.LogLevel = f.Log.Level
	}
	if f.Log.Format != "" {
		c.LogFormat = f.Log.Format
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = envInt("HTTP_PORT", c.HTTPPort)
	c.GopsAddr = envOrDefault("GOPS_ADDR", c.GopsAddr)
	c.JWTSecret = envOrDefault("JWT_SECRET", c.JWTSecret)
	c.DashboardURL = envOrDefault("DASHBOARD_URL", c.DashboardURL)
	c.AuthURL = envOrDefault("AUTH_URL", c.AuthURL)
	c.AuthAPIKey = envOrDefault("AUTH_API_KEY", c.AuthAPIKey)
	c.PGHost = envOrDefault("PG_HOST", c.PGHost)
	c.PGPort = envInt("PG_PORT", c.PGPort)
	c.PGUser = envOrDefault("PG_USER", c.PGUser)
	c.PGPassword = envOrDefault("PG_PASSWORD", c.PGPassword)
	c.PGDatabase = envOrDefault("PG_DATABASE", c.PGDatabase)
	c.PGPoolMax = envInt("PG_POOL_MAX", c.PGPoolMax)
	c.RedisAddr = envOrDefault("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envOrDefault("REDIS_PASSWORD", c.RedisPassword)
	c.StorageDriver = strings.ToLower(envOrDefault("STORAGE_DRIVER", c.StorageDriver))
	c.StorageQuotaBytes = envInt("STORAGE_QUOTA_BYTES", c.StorageQuotaBytes)
	c.WorkspaceIdle = time.Duration(envInt("WORKSPACE_IDLE_MINUTES", int(c.WorkspaceIdle.Minutes()))) * time.Minute
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("LOG_FORMAT", c.LogFormat)
}

// Validate reports settings the server cannot start without
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.AuthURL == "" {
		return ErrMissingAuthURL
	}
	if c.StorageDriver != DriverRedis && c.StorageDriver != DriverMemory {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StorageDriver)
	}
	return nil
}

// PostgresURL builds the pgx connection string
func (c Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     fmt.Sprintf("%s:%d", c.PGHost, c.PGPort),
		Path:     "/" + c.PGDatabase,
		RawQuery: url.Values{"pool_max_conns": {strconv.Itoa(c.PGPoolMax)}}.Encode(),
	}
	return u.String()
}

// ConfigureLogging applies the level and format to the standard logger
func (c Config) ConfigureLogging() {
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, keeping info")
		log.SetLevel(log.InfoLevel)
	}

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
