package goToken

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventIssueSuccess       = "issue_success"
	auditEventIssueFailure       = "issue_failure"
	auditEventIssueFailOpen      = "issue_fail_open"
	auditEventReissueSuccess     = "reissue_success"
	auditEventReissueFailure     = "reissue_failure"
	auditEventReissueRateLimited = "reissue_rate_limited"
	auditEventLogout             = "logout"
	auditEventLogoutFailure      = "logout_failure"
)

// AuditErrorCode is the stable error label carried in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrValidation       AuditErrorCode = "validation"
	auditErrTokenExpired     AuditErrorCode = "token_expired"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrRefreshNotLive   AuditErrorCode = "refresh_not_live"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		IP:        clientIPFromContext(ctx),
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrRefreshInvalid):
		return auditErrRefreshNotLive
	case errors.Is(err, ErrReissueRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock()
	}
	return time.Now()
}
