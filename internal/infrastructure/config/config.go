package config

import (
	"errors"
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
	JWT       JWTConfig
	Password  PasswordConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Workflow  WorkflowConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// DatabaseConfig selects postgres (Host..SSLMode) or sqlite (Path)
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string
	LogLevel        string        // silent, error, warn, info
	SlowThreshold   time.Duration // statements above it log at warn
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled           bool
	Host              string
	Port              int
	Password          string
	DB                int
	// NotificationQueue is the list welcome and invite notifications are pushed to
	NotificationQueue string
}

type JWTConfig struct {
	Secret     string
	Algorithm  string // HS256, HS384, HS512
	Expiration time.Duration
	Issuer     string
}

// PasswordConfig is the password policy applied at signup
type PasswordConfig struct {
	MinLength     int
	RequireDigit  bool
	RequireLower  bool
	RequireUpper  bool
	RequireSymbol bool
	BcryptCost    int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RequestTimeout    time.Duration
	TrustedProxies    []string
	MaxBodyBytes      int64
	CORSOrigins       []string
	// AuthRatePerSecond and AuthRateBurst bound signup/login attempts per client IP
	AuthRatePerSecond float64
	AuthRateBurst     int
	// IdempotencyTTL is how long an Idempotency-Key stays claimed. Negative disables the guard.
	IdempotencyTTL    time.Duration
}

// StorageConfig points at an S3-compatible bucket for product images
type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UsePathStyle      bool
	PresignExpiration time.Duration
}

type SwaggerConfig struct {
	Enabled    bool
	// AllowedIPs restricts /swagger to these IPs or CIDRs; empty allows all
	AllowedIPs []string
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool
}

type WorkflowConfig struct {
	TransactionTimeout time.Duration
	InviteTTL          time.Duration
	EmailCheckTTL      time.Duration
	// PurgeInterval paces the sweep of expired invites and email checks; negative disables it
	PurgeInterval time.Duration
}

// Load reads configuration. Priority, highest first:
// SHOP_-prefixed environment variables (SHOP_DATABASE_PASSWORD), config.toml,
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// booleans that default to true cannot be told apart from unset after
	// decoding, so they are seeded here rather than in applyDefaults
	v.SetDefault("password.require_digit", true)
	v.SetDefault("password.require_lower", true)
	v.SetDefault("password.require_upper", true)
	v.SetDefault("password.require_symbol", true)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:      v.GetBool("redis.enabled"),
			Host:         v.GetString("redis.host"),
			Port:         v.GetInt("redis.port"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			NotificationQueue: v.GetString("redis.notification_queue"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Algorithm:  v.GetString("jwt.algorithm"),
			Expiration: v.GetDuration("jwt.expiration"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Password: PasswordConfig{
			MinLength:     v.GetInt("password.min_length"),
			RequireDigit:  v.GetBool("password.require_digit"),
			RequireLower:  v.GetBool("password.require_lower"),
			RequireUpper:  v.GetBool("password.require_upper"),
			RequireSymbol: v.GetBool("password.require_symbol"),
			BcryptCost:    v.GetInt("password.bcrypt_cost"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			RequestTimeout: v.GetDuration("http.request_timeout"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			MaxBodyBytes:   v.GetInt64("http.max_body_bytes"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),

			AuthRatePerSecond: v.GetFloat64("http.auth_rate_per_second"),
			AuthRateBurst:     v.GetInt("http.auth_rate_burst"),
			IdempotencyTTL:    v.GetDuration("http.idempotency_ttl"),
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
		Workflow: WorkflowConfig{
			TransactionTimeout: v.GetDuration("workflow.transaction_timeout"),
			InviteTTL:          v.GetDuration("workflow.invite_ttl"),
			EmailCheckTTL:      v.GetDuration("workflow.email_check_ttl"),
			PurgeInterval:      v.GetDuration("workflow.purge_interval"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// devJWTSecret signs tokens outside production when no secret is configured
const devJWTSecret = "development-only-secret-do-not-deploy"

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shop-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}

	db := &cfg.Database
	if db.Driver == "" {
		db.Driver = "postgres"
	}
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.User == "" {
		db.User = "postgres"
	}
	if db.DBName == "" {
		db.DBName = "shop"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.Path == "" {
		db.Path = "shop.db"
	}
	if db.LogLevel == "" {
		db.LogLevel = "warn"
	}
	if db.SlowThreshold == 0 {
		db.SlowThreshold = 200 * time.Millisecond
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = 25
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = 5
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = time.Hour
	}
	if db.ConnMaxIdleTime == 0 {
		db.ConnMaxIdleTime = 30 * time.Minute
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.NotificationQueue == "" {
		cfg.Redis.NotificationQueue = "notifications"
	}

	if cfg.JWT.Algorithm == "" {
		cfg.JWT.Algorithm = "HS256"
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 12 * time.Hour
	}
	if cfg.JWT.Secret == "" && cfg.App.Env != "production" {
		cfg.JWT.Secret = devJWTSecret
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = cfg.App.Name
	}

	if cfg.Password.MinLength == 0 {
		cfg.Password.MinLength = 6
	}
	if cfg.Password.BcryptCost == 0 {
		cfg.Password.BcryptCost = 10
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
		cfg.HTTP.IdleTimeout = time.Minute
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if cfg.HTTP.AuthRatePerSecond == 0 {
		cfg.HTTP.AuthRatePerSecond = 1
	}
	if cfg.HTTP.AuthRateBurst == 0 {
		cfg.HTTP.AuthRateBurst = 10
	}
	if cfg.HTTP.IdempotencyTTL == 0 {
		cfg.HTTP.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "product-images"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}

	if cfg.Workflow.TransactionTimeout == 0 {
		cfg.Workflow.TransactionTimeout = 30 * time.Second
	}
	if cfg.Workflow.InviteTTL == 0 {
		cfg.Workflow.InviteTTL = 7 * 24 * time.Hour
	}
	if cfg.Workflow.EmailCheckTTL == 0 {
		cfg.Workflow.EmailCheckTTL = 24 * time.Hour
	}
	if cfg.Workflow.PurgeInterval == 0 {
		cfg.Workflow.PurgeInterval = time.Hour
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
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

	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt.algorithm must be one of HS256, HS384, HS512, got %q", c.JWT.Algorithm)
	}
	if c.Password.MinLength < 1 {
		return fmt.Errorf("password.min_length must be positive")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Storage.Enabled && (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		return fmt.Errorf("storage.access_key and storage.secret_key must be set together")
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// IsProduction reports whether the production invariants apply
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// DSN returns the postgres connection URL with escaped credentials
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

// Address is the redis host:port
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
