package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis failure, timeouts included.
var ErrStoreUnavailable = errors.New("refresh store unavailable")

// ErrRecordCorrupt is returned by [Store.Matches] when the stored value cannot
// be decoded.
var ErrRecordCorrupt = errors.New("refresh record corrupt")

// ErrInvalidArgument is returned for an empty subject or a non-positive TTL.
var ErrInvalidArgument = errors.New("refresh store: invalid argument")

// DefaultOpTimeout bounds each Redis round trip when no timeout is configured.
const DefaultOpTimeout = 2 * time.Second

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "rt"

// Store is the Redis-backed refresh reference store. It is safe for
// concurrent use; it holds no state besides the client.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
	now       func() time.Time
}

// NewStore creates a [Store] over rdb. An empty prefix falls back to
// [DefaultPrefix] and a non-positive opTimeout to [DefaultOpTimeout].
func NewStore(rdb redis.UniversalClient, prefix string, opTimeout time.Duration) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Store{
		redis:     rdb,
		prefix:    prefix,
		opTimeout: opTimeout,
		now:       time.Now,
	}
}

func (s *Store) key(subjectID string) string {
	return s.prefix + ":" + subjectID
}

// OpTimeout reports the per-call deadline applied to Redis commands.
func (s *Store) OpTimeout() time.Duration {
	return s.opTimeout
}

// Save records token as the subject's only live refresh credential, replacing
// any previous one. A single SET with PX makes the overwrite atomic; when two
// saves race, the last one wins.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, subjectID, token string, ttl time.Duration) error {
	if subjectID == "" || ttl <= 0 {
		return ErrInvalidArgument
	}

	data, err := EncodeRecord(&Record{
		Hash:     HashToken(token),
		IssuedAt: s.now().Unix(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Set(ctx, s.key(subjectID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Matches reports whether token is the subject's live refresh credential.
// A missing key yields (false, nil). The digest comparison is constant time.
//
//	Performance: 1 Redis GET.
func (s *Store) Matches(ctx context.Context, subjectID, token string) (bool, error) {
	if subjectID == "" {
		return false, ErrInvalidArgument
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	data, err := s.redis.Get(ctx, s.key(subjectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return hashEqual(rec.Hash, HashToken(token)), nil
}

// Revoke deletes the subject's record. Deleting an absent key succeeds.
//
//	Performance: 1 Redis DEL.
func (s *Store) Revoke(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return ErrInvalidArgument
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.redis.Del(ctx, s.key(subjectID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// TTL returns the remaining lifetime of the subject's record, or 0 when there
// is none.
func (s *Store) TTL(ctx context.Context, subjectID string) (time.Duration, error) {
	if subjectID == "" {
		return 0, ErrInvalidArgument
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	ttl, err := s.redis.PTTL(ctx, s.key(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// -2: no key, -1: no expiry. Neither is produced by Save.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
