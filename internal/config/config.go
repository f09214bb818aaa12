// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required
// values are present so the service fails fast at startup instead of
// on the first request.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values (identity, database, redis, notification).
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix TABSSO_.
	Keys are lowercased and the prefix removed; nesting uses "." so
	TABSSO_AUTH.CLIENT_ID -> auth.client_id -> Config.Auth.ClientID.
	Underscores are NOT converted into dots.
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "TABSSO_"

// ServiceName tags logs, traces and the New Relic application.
const ServiceName = "tab-sso-backend"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Notification  NotificationConfig   `koanf:"notification" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=0"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimit is requests per second per client IP on the /api group.
	// Zero disables the limiter.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
}

// DatabaseConfig contains the PostgreSQL connection string and pool tuning.
type DatabaseConfig struct {
	ConnectionString string `koanf:"connection_string" validate:"required"`
	MaxConns         int32  `koanf:"max_conns" validate:"min=0"`
	MinConns         int32  `koanf:"min_conns" validate:"min=0"`
	ConnMaxLifetime  int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime  int    `koanf:"conn_max_idle_time" validate:"min=0"`
	AutoMigrate      bool   `koanf:"auto_migrate"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// AuthConfig holds the Azure AD application used both for the
// on-behalf-of exchange and for application-only Graph calls.
//
// ClientSecret should come from a secret store in deployments, not a
// committed `.env` file.
type AuthConfig struct {
	AuthorityHost string   `koanf:"authority_host" validate:"required,url"`
	TenantID      string   `koanf:"tenant_id" validate:"required"`
	ClientID      string   `koanf:"client_id" validate:"required"`
	ClientSecret  string   `koanf:"client_secret" validate:"required"`
	GraphScopes   []string `koanf:"graph_scopes"`
}

// NotificationConfig describes the activity feed notification that the
// notification handler sends. ActivityType must be declared in the
// Teams app manifest.
type NotificationConfig struct {
	TeamsAppID    string        `koanf:"teams_app_id" validate:"required"`
	ActivityType  string        `koanf:"activity_type"`
	PreviewText   string        `koanf:"preview_text"`
	TaskName      string        `koanf:"task_name"`
	Queue         string        `koanf:"queue"`
	Timeout       time.Duration `koanf:"timeout"`
	Concurrency   int           `koanf:"concurrency" validate:"min=0"`
	ShutdownGrace time.Duration `koanf:"shutdown_grace"`
}

// DefaultGraphScope is used when auth.graph_scopes is empty.
const DefaultGraphScope = "https://graph.microsoft.com/.default"

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults, and returns the result.
//
// Errors are returned, not logged: main decides to exit, which keeps the
// function testable.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Auth.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed; environment always follows primary.env.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}
	if len(c.Auth.GraphScopes) == 0 {
		c.Auth.GraphScopes = []string{DefaultGraphScope}
	}

	n := &c.Notification
	if n.ActivityType == "" {
		n.ActivityType = "taskCreated"
	}
	if n.PreviewText == "" {
		n.PreviewText = "New Task Created"
	}
	if n.TaskName == "" {
		n.TaskName = "New Task"
	}
	if n.Queue == "" {
		n.Queue = "notifications"
	}
	if n.Timeout == 0 {
		n.Timeout = 30 * time.Second
	}
	if n.Concurrency == 0 {
		n.Concurrency = 5
	}
	if n.ShutdownGrace == 0 {
		n.ShutdownGrace = 10 * time.Second
	}
}

// Validate checks what struct tags cannot express: the authority host
// must be an absolute https URL with a trailing slash, which is the form
// azidentity expects.
func (a *AuthConfig) Validate() error {
	u, err := url.Parse(a.AuthorityHost)
	if err != nil {
		return fmt.Errorf("authority_host: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("authority_host must be an absolute https URL, got %q", a.AuthorityHost)
	}
	if !strings.HasSuffix(a.AuthorityHost, "/") {
		a.AuthorityHost += "/"
	}
	return nil
}
