package goToken

import "time"

// SecurityReport summarizes the security-relevant posture of a built engine.
// It never contains key material.
type SecurityReport struct {
	ProductionMode         bool
	SigningAlgorithm       string
	KeyDerivation          string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	Leeway                 time.Duration
	IssuerChecked          bool
	RefreshStorage         string
	RefreshRotationEnabled bool
	FailOpenOnIssue        bool
	StoreOpTimeout         time.Duration
	ReissueThrottleActive  bool
	AuditActive            bool
	LintWarnings           []string
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		ProductionMode:         e.config.Security.ProductionMode,
		SigningAlgorithm:       "HS512",
		KeyDerivation:          "HKDF-SHA512",
		AccessTTL:              e.config.JWT.AccessTTL,
		RefreshTTL:             e.config.JWT.RefreshTTL,
		Leeway:                 e.config.JWT.Leeway,
		IssuerChecked:          e.config.JWT.Issuer != "",
		RefreshStorage:         "sha256",
		RefreshRotationEnabled: false,
		FailOpenOnIssue:        e.config.Store.FailOpenOnIssue,
		StoreOpTimeout:         e.config.Store.OpTimeout,
		ReissueThrottleActive:  e.limiter != nil,
		AuditActive:            e.audit != nil,
		LintWarnings:           e.config.Lint().AtLeast(LintWarn).Codes(),
	}
}
