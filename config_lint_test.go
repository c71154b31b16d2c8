package goToken

import (
	"slices"
	"testing"
	"time"
)

func TestLintDefaultConfig(t *testing.T) {
	cfg := testConfig()
	ws := cfg.Lint()

	if len(ws.AtLeast(LintWarn)) != 0 {
		t.Fatalf("expected no WARN findings for defaults, got %v", ws.AtLeast(LintWarn).Codes())
	}
	if !slices.Contains(ws.Codes(), "reissue_throttle_disabled") {
		t.Fatal("expected reissue_throttle_disabled info for defaults")
	}
}

func TestLintHighSecurityConfigIsClean(t *testing.T) {
	cfg := HighSecurityConfig()
	cfg.JWT.Secret = testSecret
	if err := cfg.Validate(); err != nil {
		t.Fatalf("HighSecurityConfig must validate: %v", err)
	}
	if ws := cfg.Lint(); len(ws) != 0 {
		t.Fatalf("expected no findings, got %v", ws.Codes())
	}
}

func TestLintFindings(t *testing.T) {
	tests := []struct {
		code     string
		severity LintSeverity
		mutate   func(*Config)
	}{
		{"access_ttl_long", LintWarn, func(c *Config) { c.JWT.AccessTTL = 2 * time.Hour }},
		{"refresh_ttl_long", LintWarn, func(c *Config) { c.JWT.RefreshTTL = 60 * 24 * time.Hour }},
		{"leeway_large", LintWarn, func(c *Config) { c.JWT.Leeway = 90 * time.Second }},
		{"issuer_unset", LintInfo, func(c *Config) { c.JWT.Issuer = "" }},
		{"fail_open_issue", LintHigh, func(c *Config) { c.Store.FailOpenOnIssue = true }},
		{"store_timeout_long", LintWarn, func(c *Config) { c.Store.OpTimeout = 10 * time.Second }},
		{"audit_disabled", LintWarn, func(c *Config) {
			c.Security.ProductionMode = true
			c.Audit.Enabled = false
		}},
		{"metrics_disabled", LintInfo, func(c *Config) {
			c.Security.ProductionMode = true
			c.Metrics.Enabled = false
		}},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			var found *LintWarning
			for _, w := range cfg.Lint() {
				if w.Code == tc.code {
					found = &w
					break
				}
			}
			if found == nil {
				t.Fatalf("expected %s finding", tc.code)
			}
			if found.Severity != tc.severity {
				t.Fatalf("expected severity %s, got %s", tc.severity, found.Severity)
			}
			if found.Message == "" {
				t.Fatal("expected a message")
			}
		})
	}
}

func TestLintAtLeast(t *testing.T) {
	ws := LintWarnings{
		{Code: "a", Severity: LintInfo},
		{Code: "b", Severity: LintWarn},
		{Code: "c", Severity: LintHigh},
	}
	if got := ws.AtLeast(LintWarn).Codes(); !slices.Equal(got, []string{"b", "c"}) {
		t.Fatalf("unexpected filter result %v", got)
	}
	if got := ws.AtLeast(LintHigh).Codes(); !slices.Equal(got, []string{"c"}) {
		t.Fatalf("unexpected filter result %v", got)
	}
}

func TestSecurityReport(t *testing.T) {
	engine, _, done := newTestEngine(t, func(cfg *Config, _ *Builder) {
		cfg.Security.EnableReissueThrottle = true
		cfg.JWT.AccessTTL = 2 * time.Hour
	})
	defer done()

	r := engine.SecurityReport()
	if r.SigningAlgorithm != "HS512" || r.RefreshStorage != "sha256" || r.RefreshRotationEnabled {
		t.Fatalf("unexpected report %+v", r)
	}
	if !r.ReissueThrottleActive || r.AuditActive {
		t.Fatalf("unexpected throttle/audit flags %+v", r)
	}
	if !r.IssuerChecked {
		t.Fatal("expected issuer check reported")
	}
	if !slices.Contains(r.LintWarnings, "access_ttl_long") {
		t.Fatalf("expected access_ttl_long in report, got %v", r.LintWarnings)
	}
}
