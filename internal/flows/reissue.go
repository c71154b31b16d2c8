package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goToken/jwt"
)

// ReissueFailureKind classifies reissue flow failures for root-level mapping.
type ReissueFailureKind int

const (
	ReissueFailureNone ReissueFailureKind = iota
	ReissueFailureInvalid
	ReissueFailureExpired
	ReissueFailureRateLimited
	ReissueFailureNotLive
	ReissueFailureCorrupt
	ReissueFailureStore
	ReissueFailureEncodeAccess
)

// ReissueResult carries the new access credential or failure metadata.
// SubjectID and Roles are set once the refresh credential has decoded.
type ReissueResult struct {
	Failure     ReissueFailureKind
	Err         error
	SubjectID   string
	Roles       []string
	AccessToken string
}

type ReissueRateLimiter interface {
	CheckReissue(ctx context.Context, subjectID string) error
}

type ReissueStore interface {
	Matches(ctx context.Context, subjectID, token string) (bool, error)
}

// ReissueDeps captures reissue flow dependencies. RecordCorrupt is the store
// error that marks an undecodable record; it is reported separately from
// availability failures.
type ReissueDeps struct {
	DecodeRefresh func(string) jwt.Result
	EncodeAccess  func(subjectID string, roles []string) (string, error)
	RateLimiter   ReissueRateLimiter
	Store         ReissueStore
	RecordCorrupt error
}

// RunReissue verifies refreshToken, confirms it is the subject's live refresh
// credential and encodes a new access credential for the same subject and
// roles. The refresh credential and its record are left untouched.
func RunReissue(ctx context.Context, refreshToken string, deps ReissueDeps) ReissueResult {
	res := deps.DecodeRefresh(refreshToken)
	switch res.Status {
	case jwt.StatusValid:
	case jwt.StatusExpired:
		return ReissueResult{Failure: ReissueFailureExpired, Err: res.Err}
	default:
		return ReissueResult{Failure: ReissueFailureInvalid, Err: res.Err}
	}

	subjectID := res.Claims.Subject
	roles := res.Claims.Roles

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckReissue(ctx, subjectID); err != nil {
			return ReissueResult{
				Failure:   ReissueFailureRateLimited,
				Err:       err,
				SubjectID: subjectID,
				Roles:     roles,
			}
		}
	}

	live, err := deps.Store.Matches(ctx, subjectID, refreshToken)
	if err != nil {
		failure := ReissueFailureStore
		if deps.RecordCorrupt != nil && errors.Is(err, deps.RecordCorrupt) {
			failure = ReissueFailureCorrupt
		}
		return ReissueResult{
			Failure:   failure,
			Err:       err,
			SubjectID: subjectID,
			Roles:     roles,
		}
	}
	if !live {
		return ReissueResult{
			Failure:   ReissueFailureNotLive,
			SubjectID: subjectID,
			Roles:     roles,
		}
	}

	access, err := deps.EncodeAccess(subjectID, roles)
	if err != nil {
		return ReissueResult{
			Failure:   ReissueFailureEncodeAccess,
			Err:       err,
			SubjectID: subjectID,
			Roles:     roles,
		}
	}

	return ReissueResult{
		Failure:     ReissueFailureNone,
		SubjectID:   subjectID,
		Roles:       roles,
		AccessToken: access,
	}
}
