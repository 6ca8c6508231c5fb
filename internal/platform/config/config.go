// Package config loads process configuration: defaults, then an optional YAML file,
// then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	LLM      LLMConfig      `yaml:"llm"`
	Activity ActivityConfig `yaml:"activity"`
	Device   DeviceConfig   `yaml:"device"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Port string `yaml:"port"`
	// CORSOrigins lists allowed browser origins; empty disables CORS headers.
	CORSOrigins       []string      `yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	// Backend is memory or postgres.
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	MaxConns    int32  `yaml:"max_conns"`
}

type AuthConfig struct {
	// Mode is jwt, header (trust an upstream gateway header) or dev.
	Mode       string    `yaml:"mode"`
	UserHeader string    `yaml:"user_header"`
	DevSubject string    `yaml:"dev_subject"`
	JWT        JWTConfig `yaml:"jwt"`
}

type JWTConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`

	ClockSkew              time.Duration `yaml:"clock_skew"`
	JWKSRefreshInterval    time.Duration `yaml:"jwks_refresh_interval"`
	JWKSMinRefreshInterval time.Duration `yaml:"jwks_min_refresh_interval"`
	HTTPTimeout            time.Duration `yaml:"http_timeout"`
}

type LLMConfig struct {
	// Provider is genai or canned.
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ActivityConfig struct {
	PerDomainLimit int `yaml:"per_domain_limit"`
}

type DeviceConfig struct {
	DataDir       string        `yaml:"data_dir"`
	RemoteBaseURL string        `yaml:"remote_base_url"`
	RemoteToken   string        `yaml:"remote_token"`
	SyncTimeout   time.Duration `yaml:"sync_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config that runs locally with in-memory storage.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:              "8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:  "memory",
			MaxConns: 10,
		},
		Auth: AuthConfig{
			Mode:       "header",
			UserHeader: "X-User-Id",
			DevSubject: "dev-user",
			JWT: JWTConfig{
				ClockSkew:              30 * time.Second,
				JWKSRefreshInterval:    10 * time.Minute,
				JWKSMinRefreshInterval: 30 * time.Second,
				HTTPTimeout:            5 * time.Second,
			},
		},
		LLM: LLMConfig{
			Provider: "canned",
			Model:    "gemini-2.5-flash",
			Timeout:  90 * time.Second,
		},
		Activity: ActivityConfig{
			PerDomainLimit: 5,
		},
		Device: DeviceConfig{
			DataDir:     defaultDataDir(),
			SyncTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty, in which case COACH_CONFIG is consulted;
// a missing file at an explicitly given path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("COACH_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTP.Port, "PORT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.UserHeader, "AUTH_USER_HEADER")
	setString(&c.Auth.DevSubject, "DEV_SUBJECT")
	setString(&c.Auth.JWT.Issuer, "JWT_ISSUER")
	setString(&c.Auth.JWT.Audience, "JWT_AUDIENCE")
	setString(&c.Auth.JWT.JWKSURL, "JWT_JWKS_URL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.Device.DataDir, "COACH_DATA_DIR")
	setString(&c.Device.RemoteBaseURL, "COACH_REMOTE_URL")
	setString(&c.Device.RemoteToken, "COACH_REMOTE_TOKEN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setDuration(&c.LLM.Timeout, "LLM_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Device.SyncTimeout, "COACH_SYNC_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.HTTP.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("ACTIVITY_PER_DOMAIN_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACTIVITY_PER_DOMAIN_LIMIT must be an integer: %w", err)
		}
		c.Activity.PerDomainLimit = n
	}
	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DATABASE_MAX_CONNS must be an integer: %w", err)
		}
		c.Storage.MaxConns = int32(n)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url (DATABASE_URL) is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or postgres, got %q", c.Storage.Backend)
	}
	switch c.Auth.Mode {
	case "header":
		if strings.TrimSpace(c.Auth.UserHeader) == "" {
			return fmt.Errorf("auth.user_header is required in header mode")
		}
	case "jwt":
		j := c.Auth.JWT
		if j.Issuer == "" || j.Audience == "" || j.JWKSURL == "" {
			return fmt.Errorf("auth.jwt issuer, audience and jwks_url are required in jwt mode")
		}
	case "dev":
	default:
		return fmt.Errorf("auth.mode must be jwt, header or dev, got %q", c.Auth.Mode)
	}
	switch c.LLM.Provider {
	case "canned":
	case "genai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key (GEMINI_API_KEY) is required for the genai provider")
		}
	default:
		return fmt.Errorf("llm.provider must be genai or canned, got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.Activity.PerDomainLimit < 1 || c.Activity.PerDomainLimit > 5 {
		return fmt.Errorf("activity.per_domain_limit must be between 1 and 5")
	}
	if c.Device.SyncTimeout <= 0 {
		return fmt.Errorf("device.sync_timeout must be positive")
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "coach")
	}
	return ".coach"
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
