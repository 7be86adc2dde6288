package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Shop      ShopConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the detail-lookup cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// CacheTTL bounds how long product/member detail lookups are reused
	CacheTTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// ShopConfig holds shop API client settings
type ShopConfig struct {
	// BaseURL of the shop commerce API
	BaseURL string
	// TokenURL of the OAuth token endpoint (defaults under BaseURL)
	TokenURL string
	// Timeout for individual API calls
	Timeout time.Duration
	// RetryAttempts for credential acquisition before giving up
	RetryAttempts int
	// RetryDelay between credential acquisition attempts
	RetryDelay time.Duration
}

// SyncConfig holds sync run tunables
type SyncConfig struct {
	// OverlapHours is the rolling incremental window width
	OverlapHours int
	// DefaultRangeDays is the manual full-range lookback when unspecified
	DefaultRangeDays int
	// MaxRangeDays bounds the manual full-range lookback
	MaxRangeDays int
	// PageSize for upstream order listing
	PageSize int
	// PageInterval is the minimum delay between page fetches
	PageInterval time.Duration
	// StaleThreshold after which a running run with no heartbeat is reclaimed
	StaleThreshold time.Duration
}

// SchedulerConfig holds the background scheduler settings
type SchedulerConfig struct {
	Enabled bool
	// TickInterval between due-store scans
	TickInterval time.Duration
	// ActivityFeedSize bounds the in-memory activity ring
	ActivityFeedSize int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CLASSSYNC_ prefix (e.g., CLASSSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CLASSSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CacheTTL: v.GetDuration("redis.cache_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Shop: ShopConfig{
			BaseURL:       v.GetString("shop.base_url"),
			TokenURL:      v.GetString("shop.token_url"),
			Timeout:       v.GetDuration("shop.timeout"),
			RetryAttempts: v.GetInt("shop.retry_attempts"),
			RetryDelay:    v.GetDuration("shop.retry_delay"),
		},
		Sync: SyncConfig{
			OverlapHours:     v.GetInt("sync.overlap_hours"),
			DefaultRangeDays: v.GetInt("sync.default_range_days"),
			MaxRangeDays:     v.GetInt("sync.max_range_days"),
			PageSize:         v.GetInt("sync.page_size"),
			PageInterval:     v.GetDuration("sync.page_interval"),
			StaleThreshold:   v.GetDuration("sync.stale_threshold"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          v.GetBool("scheduler.enabled"),
			TickInterval:     v.GetDuration("scheduler.tick_interval"),
			ActivityFeedSize: v.GetInt("scheduler.activity_feed_size"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "classsync-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "classsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = time.Hour
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins have no wildcard fallback. An empty list means no
	// cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Shop.BaseURL == "" {
		cfg.Shop.BaseURL = "https://api.commerce.naver.com"
	}
	if cfg.Shop.TokenURL == "" {
		cfg.Shop.TokenURL = cfg.Shop.BaseURL + "/external/v1/oauth2/token"
	}
	if cfg.Shop.Timeout == 0 {
		cfg.Shop.Timeout = 30 * time.Second
	}
	if cfg.Shop.RetryAttempts == 0 {
		cfg.Shop.RetryAttempts = 3
	}
	if cfg.Shop.RetryDelay == 0 {
		cfg.Shop.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Sync.OverlapHours == 0 {
		cfg.Sync.OverlapHours = 24
	}
	if cfg.Sync.DefaultRangeDays == 0 {
		cfg.Sync.DefaultRangeDays = 30
	}
	if cfg.Sync.MaxRangeDays == 0 {
		cfg.Sync.MaxRangeDays = 90
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 50
	}
	if cfg.Sync.PageInterval == 0 {
		cfg.Sync.PageInterval = 500 * time.Millisecond
	}
	if cfg.Sync.StaleThreshold == 0 {
		cfg.Sync.StaleThreshold = 5 * time.Minute
	}
	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = time.Minute
	}
	if cfg.Scheduler.ActivityFeedSize == 0 {
		cfg.Scheduler.ActivityFeedSize = 200
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if _, err := url.Parse(c.Shop.BaseURL); err != nil {
		return fmt.Errorf("shop.base_url is not a valid URL: %w", err)
	}
	if c.Shop.RetryAttempts < 1 {
		return fmt.Errorf("shop.retry_attempts must be at least 1")
	}

	if c.Sync.OverlapHours < 1 {
		return fmt.Errorf("sync.overlap_hours must be at least 1")
	}
	if c.Sync.MaxRangeDays < c.Sync.DefaultRangeDays {
		return fmt.Errorf("sync.max_range_days (%d) cannot be below sync.default_range_days (%d)",
			c.Sync.MaxRangeDays, c.Sync.DefaultRangeDays)
	}
	if c.Scheduler.TickInterval < time.Second {
		return fmt.Errorf("scheduler.tick_interval must be at least 1s")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
