// Package config loads the tokend service configuration from the environment
// and an optional .env file, and turns it into a goToken.Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/internal/logging"
	"github.com/MrEthical07/goToken/jwt"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig is the complete service configuration. Every field maps to a
// TOKEN_-prefixed environment variable.
type AppConfig struct {
	Dev bool `env:"DEV" envDefault:"false"`

	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Security SecurityConfig `envPrefix:"SECURITY_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// JWTConfig carries the base64 signing secret and codec settings.
type JWTConfig struct {
	Secret        string        `env:"SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TTL"     envDefault:"30m"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL"    envDefault:"336h"`
	Issuer        string        `env:"ISSUER"`
	Leeway        time.Duration `env:"LEEWAY"         envDefault:"0s"`
	AccessHeader  string        `env:"ACCESS_HEADER"  envDefault:"ACCESS_TOKEN"`
	RefreshHeader string        `env:"REFRESH_HEADER" envDefault:"REFRESH_TOKEN"`
}

type StoreConfig struct {
	Prefix          string        `env:"PREFIX"             envDefault:"rt"`
	OpTimeout       time.Duration `env:"OP_TIMEOUT"         envDefault:"2s"`
	FailOpenOnIssue bool          `env:"FAIL_OPEN_ON_ISSUE" envDefault:"false"`
}

type SecurityConfig struct {
	ProductionMode     bool          `env:"PRODUCTION_MODE"      envDefault:"false"`
	ReissueThrottle    bool          `env:"REISSUE_THROTTLE"     envDefault:"false"`
	MaxReissueAttempts int           `env:"MAX_REISSUE_ATTEMPTS" envDefault:"30"`
	ReissueWindow      time.Duration `env:"REISSUE_WINDOW"       envDefault:"1m"`
}

type AuditConfig struct {
	Enabled    bool `env:"ENABLED"     envDefault:"false"`
	BufferSize int  `env:"BUFFER_SIZE" envDefault:"1024"`
}

// LogConfig configures internal/logging. File is optional.
type LogConfig struct {
	Level      string `env:"LEVEL"        envDefault:"info"`
	Format     string `env:"FORMAT"       envDefault:"json"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB"  envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS"  envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"14"`
}

// Prefix is prepended to every variable name.
const Prefix = "TOKEN_"

// Load reads files (".env" when none are given) into the process
// environment, then parses it. Missing .env files are ignored.
func Load(files ...string) (AppConfig, error) {
	if err := godotenv.Load(files...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return parse(env.Options{Prefix: Prefix})
}

// LoadFromMap parses environment without touching the process environment.
func LoadFromMap(environment map[string]string) (AppConfig, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environment})
}

func parse(opts env.Options) (AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize trims strings and clamps values to usable ranges.
func (c *AppConfig) Sanitize() {
	c.JWT.Secret = strings.TrimSpace(c.JWT.Secret)
	c.JWT.Issuer = strings.TrimSpace(c.JWT.Issuer)
	c.Redis.Sanitize()
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = 1024
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// EngineConfig decodes the secret and maps the service settings onto a
// goToken.Config. The result is validated.
func (c AppConfig) EngineConfig() (goToken.Config, error) {
	if c.JWT.Secret == "" {
		return goToken.Config{}, errors.New("TOKEN_JWT_SECRET is required")
	}
	secret, err := jwt.DecodeSecret(c.JWT.Secret)
	if err != nil {
		return goToken.Config{}, fmt.Errorf("TOKEN_JWT_SECRET: %w", err)
	}

	cfg := goToken.DefaultConfig()
	cfg.JWT.Secret = secret
	cfg.JWT.AccessTTL = c.JWT.AccessTTL
	cfg.JWT.RefreshTTL = c.JWT.RefreshTTL
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Leeway = c.JWT.Leeway
	cfg.Transport.AccessHeader = c.JWT.AccessHeader
	cfg.Transport.RefreshHeader = c.JWT.RefreshHeader
	cfg.Store.RedisPrefix = c.Store.Prefix
	cfg.Store.OpTimeout = c.Store.OpTimeout
	cfg.Store.FailOpenOnIssue = c.Store.FailOpenOnIssue
	cfg.Security.ProductionMode = c.Security.ProductionMode
	cfg.Security.EnableReissueThrottle = c.Security.ReissueThrottle
	cfg.Security.MaxReissueAttempts = c.Security.MaxReissueAttempts
	cfg.Security.ReissueWindow = c.Security.ReissueWindow
	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize

	if err := cfg.Validate(); err != nil {
		return goToken.Config{}, err
	}
	return cfg, nil
}

// LoggingConfig maps LogConfig onto internal/logging.
func (c AppConfig) LoggingConfig() logging.Config {
	out := logging.Config{Level: c.Log.Level, Format: c.Log.Format}
	if c.Dev && c.Log.Format == "json" {
		out.Format = "console"
	}
	if c.Log.File != "" {
		out.File = &logging.FileConfig{
			Path:       c.Log.File,
			MaxSizeMB:  c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAgeDays: c.Log.MaxAgeDays,
			Compress:   true,
		}
	}
	return out
}
