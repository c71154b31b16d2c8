package goToken

import (
	"fmt"
	"time"
)

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintHigh:
		return "HIGH"
	case LintWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

// LintWarning is an advisory finding about a configuration that passes
// Validate but is probably not what a production deployment wants.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the list returned by [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// AtLeast filters warnings with severity >= min.
func (ws LintWarnings) AtLeast(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports advisory warnings. It never fails; run Validate for hard
// errors.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "access tokens cannot be revoked; AccessTTL %s widens the exposure window", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "RefreshTTL %s exceeds 30 days", c.JWT.RefreshTTL)
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "Leeway %s accepts tokens well past expiry", c.JWT.Leeway)
	}
	if c.JWT.Issuer == "" {
		add("issuer_unset", LintInfo, "tokens carry no iss claim")
	}
	if c.Store.FailOpenOnIssue {
		add("fail_open_issue", LintHigh, "Issue returns tokens even when the refresh record was not saved")
	}
	if c.Store.OpTimeout > 5*time.Second {
		add("store_timeout_long", LintWarn, "Store OpTimeout %s holds requests during Redis outages", c.Store.OpTimeout)
	}
	if !c.Security.EnableReissueThrottle {
		add("reissue_throttle_disabled", LintInfo, "reissue attempts are not rate limited")
	}
	if c.Security.ProductionMode && !c.Audit.Enabled {
		add("audit_disabled", LintWarn, "ProductionMode without audit events")
	}
	if c.Security.ProductionMode && !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "ProductionMode without metrics")
	}

	return ws
}

// HighSecurityConfig returns a configuration tuned for production: short
// access tokens, throttled reissue, audit on.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessTTL = 10 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.JWT.Issuer = "goToken"
	cfg.Store.OpTimeout = time.Second
	cfg.Audit.Enabled = true
	cfg.Security.ProductionMode = true
	cfg.Security.EnableReissueThrottle = true
	cfg.Security.MaxReissueAttempts = 10
	cfg.Security.ReissueWindow = time.Minute
	return cfg
}
