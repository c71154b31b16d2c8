package goToken

import "errors"

var (
	// ErrValidation is returned for malformed input to Issue or Logout, such
	// as a non-positive subject or an empty role set.
	ErrValidation = errors.New("validation failed")
	// ErrTokenExpired means the credential's signature verified but its
	// expiry has passed. Callers recover from it with a reissue.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers forged, malformed or wrong-kind credentials.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrRefreshInvalid means the refresh credential verified but is not the
	// subject's live one: never issued, superseded or revoked.
	ErrRefreshInvalid = errors.New("refresh token invalid")
	// ErrStoreUnavailable wraps refresh store failures, timeouts included.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrReissueRateLimited is returned when the reissue throttle trips.
	ErrReissueRateLimited = errors.New("reissue rate limited")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
