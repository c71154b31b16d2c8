package flows

import (
	"context"
	"time"
)

// IssueFailureKind classifies issue flow failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureEncodeAccess
	IssueFailureEncodeRefresh
	IssueFailureSave
)

// IssueResult carries either the issued pair or failure metadata.
// SaveFailedOpen is set when the store write failed but the pair was still
// returned because fail-open issuance is enabled.
type IssueResult struct {
	Failure        IssueFailureKind
	Err            error
	AccessToken    string
	RefreshToken   string
	SaveFailedOpen bool
}

type IssueStore interface {
	Save(ctx context.Context, subjectID, token string, ttl time.Duration) error
}

// IssueDeps captures issue flow dependencies.
type IssueDeps struct {
	EncodeAccess   func(subjectID string, roles []string) (string, error)
	EncodeRefresh  func(subjectID string, roles []string) (string, error)
	RefreshTTL     time.Duration
	FailOpenOnSave bool
	Warn           func(string, ...any)
	Store          IssueStore
}

// RunIssue encodes an access and a refresh credential for subjectID and
// records the refresh credential as the subject's only live one. A record
// already present for the subject is overwritten.
func RunIssue(ctx context.Context, subjectID string, roles []string, deps IssueDeps) IssueResult {
	access, err := deps.EncodeAccess(subjectID, roles)
	if err != nil {
		return IssueResult{Failure: IssueFailureEncodeAccess, Err: err}
	}

	refresh, err := deps.EncodeRefresh(subjectID, roles)
	if err != nil {
		return IssueResult{Failure: IssueFailureEncodeRefresh, Err: err}
	}

	if err := deps.Store.Save(ctx, subjectID, refresh, deps.RefreshTTL); err != nil {
		if !deps.FailOpenOnSave {
			return IssueResult{Failure: IssueFailureSave, Err: err}
		}
		if deps.Warn != nil {
			deps.Warn("goToken: refresh record not saved, issuing anyway", "subject", subjectID, "error", err)
		}
		return IssueResult{
			Failure:        IssueFailureNone,
			Err:            err,
			AccessToken:    access,
			RefreshToken:   refresh,
			SaveFailedOpen: true,
		}
	}

	return IssueResult{
		Failure:      IssueFailureNone,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}
