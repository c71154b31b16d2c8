package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds reissue throttle tuning parameters.
type Config struct {
	// Prefix namespaces the counter keys, normally Store.RedisPrefix.
	Prefix             string
	MaxReissueAttempts int
	ReissueWindow      time.Duration
	OpTimeout          time.Duration
}

// Limiter counts reissue attempts per subject in fixed windows using Redis
// counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 2 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rt"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckReissue counts one attempt for subjectID and returns [ErrRateLimited]
// once the window budget is spent.
func (l *Limiter) CheckReissue(ctx context.Context, subjectID string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.OpTimeout)
	defer cancel()

	count, err := l.incrementWithTTL(ctx, l.reissueKey(subjectID), l.config.ReissueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxReissueAttempts) {
		return ErrRateLimited
	}

	return nil
}

// ReissueAttempts returns the attempt counter for the current window.
func (l *Limiter) ReissueAttempts(ctx context.Context, subjectID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.config.OpTimeout)
	defer cancel()

	count, err := l.redis.Get(ctx, l.reissueKey(subjectID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// ResetReissue clears the subject's counter. Called on logout.
func (l *Limiter) ResetReissue(ctx context.Context, subjectID string) error {
	ctx, cancel := context.WithTimeout(ctx, l.config.OpTimeout)
	defer cancel()

	if err := l.redis.Del(ctx, l.reissueKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) reissueKey(subjectID string) string {
	return l.config.Prefix + ":rti:" + subjectID
}
