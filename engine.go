package goToken

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goToken/internal/audit"
	"github.com/MrEthical07/goToken/internal/flows"
	"github.com/MrEthical07/goToken/internal/rate"
	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/refresh"
	"github.com/rs/zerolog"
)

// Engine issues, verifies, reissues and revokes credentials.
//
// Engine is immutable after [Builder.Build] and safe for concurrent use. The
// only goroutine it owns is the audit dispatcher, stopped by [Engine.Close].
type Engine struct {
	config  Config
	access  *jwt.Manager
	refresh *jwt.Manager
	store   *refresh.Store
	limiter *rate.Limiter
	audit   *audit.Dispatcher
	metrics *Metrics
	logger  zerolog.Logger
	clock   func() time.Time
	flows   flows.Deps
}

// Close stops the audit dispatcher after draining queued events. It does not
// close the Redis client, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// HeaderNames returns the configured access and refresh header names.
func (e *Engine) HeaderNames() (access, refresh string) {
	if e == nil {
		return "", ""
	}
	return e.config.Transport.AccessHeader, e.config.Transport.RefreshHeader
}

// Issue encodes an access and a refresh credential for p and records the
// refresh credential as the subject's only live one. A previous record for the
// same subject is overwritten, so of two concurrent logins the last write
// wins.
//
//	Performance: 1 Redis SET.
func (e *Engine) Issue(ctx context.Context, p Principal) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	if !p.valid() {
		e.metricInc(MetricIssueFailure)
		return TokenPair{}, fmt.Errorf("%w: principal not constructed with NewPrincipal", ErrValidation)
	}

	subject := subjectKey(p.subjectID)
	res := flows.RunIssue(ctx, subject, p.roles, e.flows.Issue)

	switch res.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureSave:
		e.metricInc(MetricIssueFailure)
		e.metricInc(MetricStoreUnavailable)
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.logger.Error().Err(res.Err).Str("op", "issue").Str("subject", subject).Msg("refresh record not saved")
		e.emitAudit(ctx, auditEventIssueFailure, false, subject, err, reasonMeta("store_save"))
		return TokenPair{}, err
	default:
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, subject, res.Err, reasonMeta("encode"))
		return TokenPair{}, res.Err
	}

	if res.SaveFailedOpen {
		e.metricInc(MetricIssueFailOpen)
		e.metricInc(MetricStoreUnavailable)
		e.emitAudit(ctx, auditEventIssueFailOpen, true, subject, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err), nil)
	} else {
		e.emitAudit(ctx, auditEventIssueSuccess, true, subject, nil, nil)
	}
	e.metricInc(MetricIssueSuccess)

	return TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}, nil
}

// VerifyAccess verifies an access credential without any I/O. Branch on
// [VerifyResult.Status]; VerifyExpired is the signal to run a reissue.
func (e *Engine) VerifyAccess(token string) VerifyResult {
	if e == nil {
		return VerifyResult{Status: VerifyInvalid, cause: ErrEngineNotReady}
	}
	start := time.Now()
	defer e.observe(MetricVerifyLatency, start)

	out := e.toVerifyResult(flows.RunVerify(token, e.flows.Verify))
	switch out.Status {
	case VerifyValid:
		e.metricInc(MetricVerifyValid)
	case VerifyExpired:
		e.metricInc(MetricVerifyExpired)
	default:
		e.metricInc(MetricVerifyInvalid)
	}
	return out
}

// ReissueAccess returns a new access credential for the subject and roles of
// refreshToken, provided refreshToken verifies and is the subject's live
// refresh credential. The refresh credential is not rotated.
//
// Errors wrap [ErrTokenInvalid], [ErrTokenExpired], [ErrRefreshInvalid],
// [ErrStoreUnavailable] or [ErrReissueRateLimited].
//
//	Performance: 1 Redis GET (+1 INCR with the throttle enabled).
func (e *Engine) ReissueAccess(ctx context.Context, refreshToken string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricReissueLatency, start)

	res := flows.RunReissue(ctx, refreshToken, e.flows.Reissue)
	if err := e.reissueError(ctx, res); err != nil {
		return "", err
	}

	e.metricInc(MetricReissueSuccess)
	e.emitAudit(ctx, auditEventReissueSuccess, true, res.SubjectID, nil, nil)
	return res.AccessToken, nil
}

// Logout revokes the subject's refresh record. Access credentials already
// handed out stay valid until they expire. Logging out a subject with no
// record succeeds.
//
//	Performance: 1 Redis DEL (+1 with the throttle enabled).
func (e *Engine) Logout(ctx context.Context, subjectID int64) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if subjectID <= 0 {
		e.metricInc(MetricLogoutFailure)
		return fmt.Errorf("%w: subject id must be > 0", ErrValidation)
	}

	subject := subjectKey(subjectID)
	if err := flows.RunLogout(ctx, subject, e.flows.Logout); err != nil {
		e.metricInc(MetricLogoutFailure)
		e.metricInc(MetricStoreUnavailable)
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.logger.Error().Err(err).Str("op", "logout").Str("subject", subject).Msg("refresh record not revoked")
		e.emitAudit(ctx, auditEventLogoutFailure, false, subject, err, nil)
		return err
	}

	if e.limiter != nil {
		if err := e.limiter.ResetReissue(ctx, subject); err != nil {
			e.logger.Warn().Err(err).Str("op", "logout").Str("subject", subject).Msg("reissue counter not reset")
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, subject, nil, nil)
	return nil
}

// VerifyOrReissue verifies accessToken and, if it has expired, reissues one
// from refreshToken. A valid access credential is returned as is; an invalid
// one fails with [ErrTokenInvalid] without consulting the store.
func (e *Engine) VerifyOrReissue(ctx context.Context, accessToken, refreshToken string) (VerifyOutcome, error) {
	if e == nil {
		return VerifyOutcome{}, ErrEngineNotReady
	}
	start := time.Now()

	out := flows.RunVerifyOrReissue(ctx, accessToken, refreshToken, e.flows.Verify)
	verified := e.toVerifyResult(out.Access)

	switch verified.Status {
	case VerifyValid:
		e.metricInc(MetricVerifyValid)
		e.observe(MetricVerifyLatency, start)
		return VerifyOutcome{Claims: *verified.Claims, AccessToken: accessToken}, nil
	case VerifyInvalid:
		e.metricInc(MetricVerifyInvalid)
		e.observe(MetricVerifyLatency, start)
		return VerifyOutcome{}, verified.Err()
	}

	e.metricInc(MetricVerifyExpired)
	defer e.observe(MetricReissueLatency, start)
	if err := e.reissueError(ctx, out.Reissue); err != nil {
		return VerifyOutcome{}, err
	}

	claims := e.toVerifyResult(e.access.Decode(out.AccessToken))
	if !claims.Valid() {
		return VerifyOutcome{}, claims.Err()
	}

	e.metricInc(MetricReissueSuccess)
	e.emitAudit(ctx, auditEventReissueSuccess, true, out.Reissue.SubjectID, nil, reasonMeta("access_expired"))
	return VerifyOutcome{Claims: *claims.Claims, AccessToken: out.AccessToken, Reissued: true}, nil
}

// SessionTTL reports how long the subject's refresh record will live, or 0
// when there is none.
func (e *Engine) SessionTTL(ctx context.Context, subjectID int64) (time.Duration, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	if subjectID <= 0 {
		return 0, fmt.Errorf("%w: subject id must be > 0", ErrValidation)
	}
	ttl, err := e.store.TTL(ctx, subjectKey(subjectID))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ttl, nil
}

// Ping checks the refresh store and returns the round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	d, err := e.store.Ping(ctx)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

// reissueError maps a failed reissue to its public error, recording metrics,
// logs and audit along the way. It returns nil on success.
func (e *Engine) reissueError(ctx context.Context, res flows.ReissueResult) error {
	var (
		err    error
		metric MetricID
		reason string
	)

	switch res.Failure {
	case flows.ReissueFailureNone:
		return nil
	case flows.ReissueFailureInvalid:
		err, metric, reason = wrapCause(ErrTokenInvalid, res.Err), MetricReissueInvalid, "decode"
	case flows.ReissueFailureExpired:
		err, metric, reason = wrapCause(ErrTokenExpired, res.Err), MetricReissueExpired, "expired"
	case flows.ReissueFailureNotLive:
		err, metric, reason = ErrRefreshInvalid, MetricReissueNotLive, "not_live"
	case flows.ReissueFailureCorrupt:
		e.logger.Warn().Err(res.Err).Str("op", "reissue").Str("subject", res.SubjectID).Msg("corrupt refresh record")
		err, metric, reason = wrapCause(ErrRefreshInvalid, res.Err), MetricReissueRecordCorrupt, "record_corrupt"
	case flows.ReissueFailureRateLimited:
		if errors.Is(res.Err, rate.ErrRateLimited) {
			e.metricInc(MetricReissueRateLimited)
			e.emitAudit(ctx, auditEventReissueRateLimited, false, res.SubjectID, ErrReissueRateLimited, nil)
			return ErrReissueRateLimited
		}
		// Throttle backend down: same contract as the store.
		err, metric, reason = wrapCause(ErrStoreUnavailable, res.Err), MetricStoreUnavailable, "throttle_unavailable"
		e.logger.Error().Err(res.Err).Str("op", "reissue").Str("subject", res.SubjectID).Msg("reissue throttle unavailable")
	case flows.ReissueFailureStore:
		err, metric, reason = wrapCause(ErrStoreUnavailable, res.Err), MetricStoreUnavailable, "store"
		e.logger.Error().Err(res.Err).Str("op", "reissue").Str("subject", res.SubjectID).Msg("refresh store unavailable")
	default:
		err, metric, reason = res.Err, MetricReissueInvalid, "encode"
	}

	e.metricInc(metric)
	e.emitAudit(ctx, auditEventReissueFailure, false, res.SubjectID, err, reasonMeta(reason))
	return err
}

func (e *Engine) toVerifyResult(res jwt.Result) VerifyResult {
	switch res.Status {
	case jwt.StatusValid:
		claims, err := claimsFromToken(res.Claims)
		if err != nil {
			return VerifyResult{Status: VerifyInvalid, cause: err}
		}
		return VerifyResult{Status: VerifyValid, Claims: claims}
	case jwt.StatusExpired:
		return VerifyResult{Status: VerifyExpired, cause: res.Err}
	default:
		return VerifyResult{Status: VerifyInvalid, cause: res.Err}
	}
}

func claimsFromToken(c *jwt.Claims) (*Claims, error) {
	if c == nil {
		return nil, errors.New("missing claims")
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("subject %q is not a positive integer", c.Subject)
	}
	out := &Claims{
		SubjectID: id,
		Roles:     append([]string(nil), c.Roles...),
		TokenID:   c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}
