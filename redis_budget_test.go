package goToken

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

// cmdCounter is a go-redis hook that counts round trips.
type cmdCounter struct {
	commands atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) measure(fn func()) int64 {
	h.commands.Store(0)
	fn()
	return h.commands.Load()
}

func newCountedEngine(t *testing.T, throttle bool) (*Engine, *cmdCounter, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Open the pooled connection so handshake commands are not billed to
	// the first measured operation.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warm-up ping: %v", err)
	}
	counter.commands.Store(0)

	cfg := testConfig()
	cfg.Security.EnableReissueThrottle = throttle
	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, counter, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisBudget(t *testing.T) {
	engine, counter, done := newCountedEngine(t, false)
	defer done()
	ctx := context.Background()

	var pair TokenPair
	if n := counter.measure(func() {
		var err error
		pair, err = engine.Issue(ctx, mustPrincipal(t, 1, "ROLE_USER"))
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}); n != 1 {
		t.Fatalf("Issue: expected 1 command, got %d", n)
	}

	if n := counter.measure(func() { engine.VerifyAccess(pair.AccessToken) }); n != 0 {
		t.Fatalf("VerifyAccess: expected 0 commands, got %d", n)
	}

	if n := counter.measure(func() {
		if _, err := engine.VerifyOrReissue(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
			t.Fatalf("VerifyOrReissue failed: %v", err)
		}
	}); n != 0 {
		t.Fatalf("VerifyOrReissue with a valid access credential: expected 0 commands, got %d", n)
	}

	if n := counter.measure(func() {
		if _, err := engine.ReissueAccess(ctx, pair.RefreshToken); err != nil {
			t.Fatalf("ReissueAccess failed: %v", err)
		}
	}); n != 1 {
		t.Fatalf("ReissueAccess: expected 1 command, got %d", n)
	}

	if n := counter.measure(func() { _, _ = engine.ReissueAccess(ctx, "garbage") }); n != 0 {
		t.Fatalf("ReissueAccess with an undecodable credential: expected 0 commands, got %d", n)
	}

	if n := counter.measure(func() {
		if err := engine.Logout(ctx, 1); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
	}); n != 1 {
		t.Fatalf("Logout: expected 1 command, got %d", n)
	}
}

func TestRedisBudgetWithThrottle(t *testing.T) {
	engine, counter, done := newCountedEngine(t, true)
	defer done()
	ctx := context.Background()

	pair, err := engine.Issue(ctx, mustPrincipal(t, 1, "ROLE_USER"))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// INCR + EXPIRE on the first attempt of a window, then GET.
	if n := counter.measure(func() { _, _ = engine.ReissueAccess(ctx, pair.RefreshToken) }); n != 3 {
		t.Fatalf("first throttled reissue: expected 3 commands, got %d", n)
	}
	if n := counter.measure(func() { _, _ = engine.ReissueAccess(ctx, pair.RefreshToken) }); n != 2 {
		t.Fatalf("second throttled reissue: expected 2 commands, got %d", n)
	}
	if n := counter.measure(func() { _ = engine.Logout(ctx, 1) }); n != 2 {
		t.Fatalf("Logout with throttle: expected 2 commands, got %d", n)
	}
}
