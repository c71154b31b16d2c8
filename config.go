package goToken

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goToken/jwt"
)

// Config is the immutable engine configuration consumed by [Builder.Build].
type Config struct {
	JWT       JWTConfig
	Store     StoreConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
	Transport TransportConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds codec settings. Secret is the raw signing secret; access and
// refresh keys are derived from it at build time.
type JWTConfig struct {
	Secret       []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig controls the Redis refresh store.
//
// FailOpenOnIssue decides what Issue does when the refresh record cannot be
// written: false fails the issue with ErrStoreUnavailable, true returns the
// pair anyway and the refresh token is rejected on first use.
type StoreConfig struct {
	RedisPrefix     string
	OpTimeout       time.Duration
	FailOpenOnIssue bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds hardening switches.
type SecurityConfig struct {
	ProductionMode        bool
	EnableReissueThrottle bool
	MaxReissueAttempts    int
	ReissueWindow         time.Duration
}

// TransportConfig names the header fields adapters read and write.
type TransportConfig struct {
	AccessHeader  string
	RefreshHeader string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. JWT.Secret is empty and
// must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:    30 * time.Minute,
			RefreshTTL:   14 * 24 * time.Hour,
			MaxFutureIAT: 10 * time.Minute,
		},
		Store: StoreConfig{
			RedisPrefix: "rt",
			OpTimeout:   2 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			EnableReissueThrottle: false,
			MaxReissueAttempts:    30,
			ReissueWindow:         time.Minute,
		},
		Transport: TransportConfig{
			AccessHeader:  "ACCESS_TOKEN",
			RefreshHeader: "REFRESH_TOKEN",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < jwt.MinKeySize {
		return errors.New("JWT Secret must be >= 64 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}
	if c.JWT.Issuer != "" && strings.TrimSpace(c.JWT.Issuer) == "" {
		return errors.New("JWT Issuer must not be blank when set")
	}

	// Store
	prefix := c.Store.RedisPrefix
	if strings.TrimSpace(prefix) == "" || strings.ContainsAny(prefix, " \t\r\n") {
		return errors.New("Store RedisPrefix must be non-empty without whitespace")
	}
	if c.Store.OpTimeout <= 0 {
		return errors.New("Store OpTimeout must be > 0")
	}
	if c.Store.OpTimeout > 30*time.Second {
		return errors.New("Store OpTimeout must be <= 30s")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Security
	if c.Security.EnableReissueThrottle {
		if c.Security.MaxReissueAttempts <= 0 {
			return errors.New("Security MaxReissueAttempts must be > 0 when throttle is enabled")
		}
		if c.Security.ReissueWindow <= 0 {
			return errors.New("Security ReissueWindow must be > 0 when throttle is enabled")
		}
	}
	if c.Security.ProductionMode && c.Store.FailOpenOnIssue {
		return errors.New("Store FailOpenOnIssue is not allowed in ProductionMode")
	}

	// Transport
	if !validHeaderName(c.Transport.AccessHeader) {
		return errors.New("Transport AccessHeader is not a valid header name")
	}
	if !validHeaderName(c.Transport.RefreshHeader) {
		return errors.New("Transport RefreshHeader is not a valid header name")
	}
	if strings.EqualFold(c.Transport.AccessHeader, c.Transport.RefreshHeader) {
		return errors.New("Transport AccessHeader and RefreshHeader must differ")
	}

	return nil
}

// validHeaderName accepts RFC 7230 token characters only.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
