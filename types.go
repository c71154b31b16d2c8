package goToken

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Principal is the identity a credential asserts: a positive numeric subject
// and a non-empty set of opaque role strings. Build it with [NewPrincipal];
// it is immutable afterwards.
type Principal struct {
	subjectID int64
	roles     []string
}

// NewPrincipal validates and copies its input. It returns an error wrapping
// [ErrValidation] when subjectID is not positive, roles is empty or a role
// is blank.
func NewPrincipal(subjectID int64, roles ...string) (Principal, error) {
	if subjectID <= 0 {
		return Principal{}, fmt.Errorf("%w: subject id must be > 0", ErrValidation)
	}
	if len(roles) == 0 {
		return Principal{}, fmt.Errorf("%w: roles must not be empty", ErrValidation)
	}
	out := make([]string, len(roles))
	for i, r := range roles {
		if strings.TrimSpace(r) == "" {
			return Principal{}, fmt.Errorf("%w: role %d is blank", ErrValidation, i)
		}
		out[i] = r
	}
	return Principal{subjectID: subjectID, roles: out}, nil
}

// SubjectID returns the numeric subject.
func (p Principal) SubjectID() int64 { return p.subjectID }

// Roles returns a copy of the role set.
func (p Principal) Roles() []string { return append([]string(nil), p.roles...) }

func (p Principal) valid() bool { return p.subjectID > 0 && len(p.roles) > 0 }

func subjectKey(subjectID int64) string {
	return strconv.FormatInt(subjectID, 10)
}

// TokenPair is the result of [Engine.Issue].
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Claims is the verified payload of a credential.
type Claims struct {
	SubjectID int64
	Roles     []string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Subject returns the subject in its wire (string) form.
func (c Claims) Subject() string { return subjectKey(c.SubjectID) }

// VerifyStatus is the discriminant of a [VerifyResult].
type VerifyStatus uint8

const (
	VerifyInvalid VerifyStatus = iota
	VerifyValid
	VerifyExpired
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyValid:
		return "valid"
	case VerifyExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// VerifyResult is the tagged outcome of [Engine.VerifyAccess]. Claims is set
// only for VerifyValid.
type VerifyResult struct {
	Status VerifyStatus
	Claims *Claims
	cause  error
}

// Valid reports whether the credential may be trusted.
func (r VerifyResult) Valid() bool { return r.Status == VerifyValid && r.Claims != nil }

// Err maps the result to [ErrTokenExpired] or [ErrTokenInvalid], wrapping the
// codec's reason. It is nil for a valid result.
func (r VerifyResult) Err() error {
	switch r.Status {
	case VerifyValid:
		return nil
	case VerifyExpired:
		return wrapCause(ErrTokenExpired, r.cause)
	default:
		return wrapCause(ErrTokenInvalid, r.cause)
	}
}

// VerifyOutcome is the result of [Engine.VerifyOrReissue]. When Reissued is
// true, AccessToken is a freshly encoded access credential the caller should
// hand back to the client.
type VerifyOutcome struct {
	Claims      Claims
	AccessToken string
	Reissued    bool
}

func wrapCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}
