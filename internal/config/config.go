// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// NotifyRatePerMinute caps webhook deliveries accepted per source IP.
	NotifyRatePerMinute int `yaml:"notify_rate_per_minute"`
}

type AdminConfig struct {
	Port              int    `yaml:"port"` // 0 disables the admin API
	Password          string `yaml:"password"`
	JWTSecret         string `yaml:"jwt_secret"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	SecureCookie      bool   `yaml:"secure_cookie"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GatewayConfig holds the 302.AI payment gateway credentials and the signing
// policy shared with it.
type GatewayConfig struct {
	AppID     string `yaml:"app_id"`
	Secret    string `yaml:"secret"` // shared signing secret; never logged
	BaseURL   string `yaml:"base_url"`
	NotifyURL string `yaml:"notify_url"` // public URL the gateway posts webhooks to
	// TimestampToleranceSeconds bounds |now - timestamp| on inbound
	// webhooks and stamps outbound requests. 0 disables the replay window.
	TimestampToleranceSeconds int `yaml:"timestamp_tolerance_seconds"`
	TimeoutSeconds            int `yaml:"timeout_seconds"`
	// Debug echoes generated signatures in API responses. Never enable in
	// production.
	Debug bool `yaml:"debug"`
}

type ReconcilerConfig struct {
	IntervalSeconds   int `yaml:"interval_seconds"`
	StaleAfterSeconds int `yaml:"stale_after_seconds"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Admin      AdminConfig      `yaml:"admin"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, expands ${ENV_VAR} references so secrets
// can live in the environment, applies defaults and validates. Missing
// credentials fail here, loudly, not at the first signed message.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(b))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.NotifyRatePerMinute <= 0 {
		cfg.Server.NotifyRatePerMinute = 120
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://api.302.ai/pay"
	}
	if cfg.Gateway.TimestampToleranceSeconds == 0 {
		cfg.Gateway.TimestampToleranceSeconds = 300
	}
	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = 15
	}
	if cfg.Admin.SessionTTLMinutes <= 0 {
		cfg.Admin.SessionTTLMinutes = 30
	}
	if cfg.Reconciler.IntervalSeconds <= 0 {
		cfg.Reconciler.IntervalSeconds = 60
	}
	if cfg.Reconciler.StaleAfterSeconds <= 0 {
		cfg.Reconciler.StaleAfterSeconds = 600
	}

	// Minimal validation
	if cfg.Gateway.AppID == "" {
		return nil, errors.New("gateway.app_id is required")
	}
	if cfg.Gateway.Secret == "" {
		return nil, errors.New("gateway.secret is required")
	}
	if _, err := url.Parse(cfg.Gateway.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway.base_url: %w", err)
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Admin.Port != 0 {
		if cfg.Admin.Password == "" {
			return nil, errors.New("admin.password is required when admin.port is set")
		}
		if cfg.Admin.JWTSecret == "" {
			return nil, errors.New("admin.jwt_secret is required when admin.port is set")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// TimestampTolerance returns the replay window as a duration.
func (g GatewayConfig) TimestampTolerance() time.Duration {
	if g.TimestampToleranceSeconds <= 0 {
		return 0
	}
	return time.Duration(g.TimestampToleranceSeconds) * time.Second
}

// Timeout returns the outbound HTTP timeout for gateway calls.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// SessionTTL returns the admin session lifetime.
func (a AdminConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// Interval returns how often the reconciler scans for stale orders.
func (r ReconcilerConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// StaleAfter returns how old a pending order must be before reconciling.
func (r ReconcilerConfig) StaleAfter() time.Duration {
	return time.Duration(r.StaleAfterSeconds) * time.Second
}
