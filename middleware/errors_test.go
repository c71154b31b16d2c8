package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/alicebob/miniredis/v2"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	var out ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out
}

func TestGuardErrorBodyDistinguishesExpiredFromInvalid(t *testing.T) {
	engine, c, done := newGuardEngine(t)
	defer done()
	pair := issue(t, engine, 3, "ROLE_USER")
	c.Advance(time.Hour)

	for access, want := range map[string]string{pair.AccessToken: "token_expired", "forged": "token_invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("ACCESS_TOKEN", access)
		rec := httptest.NewRecorder()
		Guard(engine)(claimsEcho()).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if out := decodeError(t, rec); out.Error != want || out.Message != "Unauthorized" {
			t.Fatalf("expected %q, got %+v", want, out)
		}
	}
}

func TestRequireRoleErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), goToken.Claims{SubjectID: 1, Roles: []string{"ROLE_USER"}}))
	RequireRole("ROLE_ADMIN")(claimsEcho()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if out := decodeError(t, rec); out.Error != "forbidden" {
		t.Fatalf("expected forbidden, got %+v", out)
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{goToken.ErrValidation, "validation"},
		{goToken.ErrTokenExpired, "token_expired"},
		{goToken.ErrTokenInvalid, "token_invalid"},
		{goToken.ErrRefreshInvalid, "refresh_invalid"},
		{goToken.ErrReissueRateLimited, "rate_limited"},
		{goToken.ErrStoreUnavailable, "store_unavailable"},
		{goToken.ErrEngineNotReady, "internal"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestGuardReissueAuditCarriesRequestID(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := goToken.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("g", 64))
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = false
	sink := goToken.NewChannelSink(16)
	c := &clock{now: time.Now()}
	engine, err := goToken.New().WithConfig(cfg).WithRedis(rdb).WithClock(c.Now).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	pair := issue(t, engine, 12, "ROLE_USER")
	c.Advance(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::7]:4711"
	req.Header.Set("ACCESS_TOKEN", pair.AccessToken)
	req.Header.Set("REFRESH_TOKEN", pair.RefreshToken)
	req.Header.Set(chimw.RequestIDHeader, "guard-req-9")
	rec := httptest.NewRecorder()
	chimw.RequestID(Guard(engine)(claimsEcho())).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", rec.Code, rec.Body.String())
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType != "reissue_success" {
				continue
			}
			if ev.RequestID != "guard-req-9" {
				t.Fatalf("expected request id guard-req-9, got %q", ev.RequestID)
			}
			if ev.IP != "2001:db8::7" {
				t.Fatalf("expected ip 2001:db8::7, got %q", ev.IP)
			}
			return
		case <-timeout:
			t.Fatal("no reissue_success audit event")
		}
	}
}
