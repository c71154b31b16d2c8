package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid is wrapped by every verification failure that is not an expiry.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired is wrapped when the signature verifies but exp has passed.
	ErrExpired = errors.New("token expired")
)

// Kind distinguishes access credentials from refresh credentials. It is
// carried in the "typ" claim and checked on decode.
type Kind string

const (
	// KindAccess marks short-lived access credentials.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived refresh credentials.
	KindRefresh Kind = "refresh"
)

// Config defines a public type used by goToken APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Kind         Kind
	Key          []byte
	Issuer       string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
	Now          func() time.Time
}

// Manager encodes and verifies HS512-signed credentials of one [Kind].
//
// Manager is immutable after [NewManager] and safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the verified payload of a credential.
type Claims struct {
	Roles []string `json:"roles"`
	Kind  Kind     `json:"typ"`
	jwt.RegisteredClaims
}

// Status is the discriminant of a [Result].
type Status uint8

const (
	// StatusInvalid covers bad signatures, malformed input, wrong algorithm or kind.
	StatusInvalid Status = iota
	// StatusValid means the signature verified and the token is unexpired.
	StatusValid
	// StatusExpired means the signature verified but exp has passed.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Result is the outcome of [Manager.Decode]. Claims is set only when Status
// is StatusValid; Err is set for every other status.
type Result struct {
	Status Status
	Claims *Claims
	Err    error
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager copies the key; later mutation of cfg.Key does not affect the manager.
func NewManager(cfg Config) (*Manager, error) {
	switch cfg.Kind {
	case KindAccess, KindRefresh:
	default:
		return nil, errors.New("unsupported token kind")
	}
	if len(cfg.Key) < MinKeySize {
		return nil, fmt.Errorf("hs512 requires a key of at least %d bytes", MinKeySize)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	key := make([]byte, len(cfg.Key))
	copy(key, cfg.Key)
	cfg.Key = key

	return &Manager{config: cfg}, nil
}

// Kind reports which credential kind the manager signs and accepts.
func (j *Manager) Kind() Kind {
	return j.config.Kind
}

// Encode signs a credential for subjectID carrying roles, valid for ttl from
// now. A non-positive ttl yields a token that is already expired.
func (j *Manager) Encode(subjectID string, roles []string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", errors.New("empty subject")
	}
	if len(roles) == 0 {
		return "", errors.New("empty roles")
	}

	now := j.config.Now()
	claims := Claims{
		Roles: append([]string(nil), roles...),
		Kind:  j.config.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(j.config.Key)
}

// Decode verifies tokenStr and classifies it. Expiry is checked last, so a
// token reported as StatusExpired has passed every other check.
func (j *Manager) Decode(tokenStr string) Result {
	if strings.TrimSpace(tokenStr) == "" {
		return invalid(errors.New("empty token"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.config.Key, nil
	})
	if err != nil {
		return invalid(err)
	}
	if !token.Valid {
		return invalid(jwt.ErrTokenInvalidClaims)
	}

	if err := j.checkClaims(claims); err != nil {
		return invalid(err)
	}

	now := j.config.Now()
	if !now.Before(claims.ExpiresAt.Time.Add(j.config.Leeway)) {
		return Result{
			Status: StatusExpired,
			Err:    fmt.Errorf("%w: expired at %s", ErrExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339)),
		}
	}

	return Result{Status: StatusValid, Claims: claims}
}

func (j *Manager) checkClaims(claims *Claims) error {
	if claims.Kind != j.config.Kind {
		return fmt.Errorf("unexpected token kind %q", claims.Kind)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("missing subject")
	}
	if len(claims.Roles) == 0 {
		return errors.New("missing roles")
	}
	if claims.ExpiresAt == nil {
		return errors.New("missing exp")
	}
	if claims.IssuedAt == nil {
		return errors.New("missing iat")
	}
	if claims.IssuedAt.Time.After(j.config.Now().Add(j.config.MaxFutureIAT)) {
		return errors.New("token iat too far in the future")
	}
	if j.config.Issuer != "" && claims.Issuer != j.config.Issuer {
		return errors.New("unexpected issuer")
	}
	return nil
}

func invalid(cause error) Result {
	return Result{
		Status: StatusInvalid,
		Err:    fmt.Errorf("%w: %v", ErrInvalid, cause),
	}
}
