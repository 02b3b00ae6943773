package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. LAVANDARIA_DATABASE_URL or LAVANDARIA_SESSION_BACKEND.
const EnvPrefix = "LAVANDARIA"

// Session backend names accepted by session.backend.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
	SessionBackendSQL    = "sql"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN); postgres:// or a SQLite path
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// development or production; production turns on Secure cookies by default
	Environment string

	// Enable debug logging
	Debug bool

	// text or json
	LogFormat string

	// Maximum database connection pool size
	MaxDBConnections int

	Session       SessionConfig
	Redis         RedisConfig
	Cookie        CookieConfig
	Policy        PolicyConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
}

// SessionConfig controls the session store.
type SessionConfig struct {
	Backend        string
	StaffTTL       time.Duration
	ClientTTL      time.Duration
	Sliding        bool
	SweepInterval  time.Duration
	CacheTTL       time.Duration // 0 disables the resolve cache
	CacheSize      int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// RedisConfig is only read when Session.Backend is "redis".
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type CookieConfig struct {
	Name   string
	Secure bool
}

// PolicyConfig points at an optional route table overriding the embedded one.
type PolicyConfig struct {
	RoutesFile string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// ObservabilityConfig configures OpenTelemetry export. An empty OTLPEndpoint
// disables telemetry.
type ObservabilityConfig struct {
	OTLPEndpoint   string
	OTLPInsecure   bool
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "file:lavandaria.db?cache=shared")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("environment", "development")
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("max_db_connections", 25)

	v.SetDefault("session.backend", SessionBackendSQL)
	v.SetDefault("session.staff_ttl", "24h")
	v.SetDefault("session.client_ttl", "8h")
	v.SetDefault("session.sliding", true)
	v.SetDefault("session.sweep_interval", "10m")
	v.SetDefault("session.cache_ttl", "0s")
	v.SetDefault("session.cache_size", 4096)
	v.SetDefault("session.retry_attempts", 3)
	v.SetDefault("session.retry_base_delay", "50ms")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "lavandaria:session:")

	v.SetDefault("cookie.name", "lavandaria_session")

	v.SetDefault("policy.routes_file", "")

	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
	})

	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.service_name", "lavandaria-gateway")
	v.SetDefault("observability.service_version", "dev")
}

// Load reads configuration from the global viper instance: defaults, then an
// optional config file loaded by the caller, then LAVANDARIA_* environment
// variables.
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Nested keys are read one by one; AutomaticEnv does not populate them
	// through Unmarshal.
	cfg := &Config{
		DatabaseURL:      v.GetString("database_url"),
		ServerAddr:       v.GetString("server_addr"),
		Environment:      strings.ToLower(v.GetString("environment")),
		Debug:            v.GetBool("debug"),
		LogFormat:        v.GetString("log_format"),
		MaxDBConnections: v.GetInt("max_db_connections"),
		Session: SessionConfig{
			Backend:        strings.ToLower(v.GetString("session.backend")),
			StaffTTL:       v.GetDuration("session.staff_ttl"),
			ClientTTL:      v.GetDuration("session.client_ttl"),
			Sliding:        v.GetBool("session.sliding"),
			SweepInterval:  v.GetDuration("session.sweep_interval"),
			CacheTTL:       v.GetDuration("session.cache_ttl"),
			CacheSize:      v.GetInt("session.cache_size"),
			RetryAttempts:  v.GetInt("session.retry_attempts"),
			RetryBaseDelay: v.GetDuration("session.retry_base_delay"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Cookie: CookieConfig{
			Name: v.GetString("cookie.name"),
		},
		Policy: PolicyConfig{
			RoutesFile: v.GetString("policy.routes_file"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint:   v.GetString("observability.otlp_endpoint"),
			OTLPInsecure:   v.GetBool("observability.otlp_insecure"),
			ServiceName:    v.GetString("observability.service_name"),
			ServiceVersion: v.GetString("observability.service_version"),
		},
	}
	cfg.Observability.Environment = cfg.Environment

	// Secure cookies follow the environment unless set explicitly.
	if v.IsSet("cookie.secure") {
		cfg.Cookie.Secure = v.GetBool("cookie.secure")
	} else {
		cfg.Cookie.Secure = cfg.IsProduction()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.ServerAddr == "" {
		return fmt.Errorf("server_addr is required")
	}
	switch c.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("environment must be development, production or test, got %q", c.Environment)
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendSQL:
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when session.backend is redis")
		}
	default:
		return fmt.Errorf("session.backend must be one of memory, redis, sql, got %q", c.Session.Backend)
	}

	if c.Session.StaffTTL <= 0 {
		return fmt.Errorf("session.staff_ttl must be positive")
	}
	if c.Session.ClientTTL <= 0 {
		return fmt.Errorf("session.client_ttl must be positive")
	}
	if c.Session.RetryAttempts < 1 {
		return fmt.Errorf("session.retry_attempts must be at least 1")
	}
	if c.Cookie.Name == "" {
		return fmt.Errorf("cookie.name is required")
	}
	if c.IsProduction() && !c.Cookie.Secure {
		return fmt.Errorf("cookie.secure cannot be disabled in production")
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
