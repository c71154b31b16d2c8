package middleware

import (
	"context"
	"net/http"
	"strings"

	goToken "github.com/MrEthical07/goToken"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by [Guard] or [RequireAccess].
func ClaimsFromContext(ctx context.Context) (goToken.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(goToken.Claims)
	return c, ok
}

// WithClaims stores c in ctx. Exposed for handler tests.
func WithClaims(ctx context.Context, c goToken.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// Guard verifies the access credential and, when it has expired, reissues one
// from the refresh header. A reissued access credential is written to the
// response under the access header name before next runs.
func Guard(engine *goToken.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goToken.ErrEngineNotReady)
				return
			}
			accessHeader, refreshHeader := engine.HeaderNames()

			access, ok := accessToken(r, accessHeader)
			if !ok {
				WriteError(w, goToken.ErrTokenInvalid)
				return
			}

			ctx := RequestContext(r)
			refresh := strings.TrimSpace(r.Header.Get(refreshHeader))
			if refresh == "" {
				res := engine.VerifyAccess(access)
				if !res.Valid() {
					WriteError(w, res.Err())
					return
				}
				next.ServeHTTP(w, r.WithContext(WithClaims(ctx, *res.Claims)))
				return
			}

			out, err := engine.VerifyOrReissue(ctx, access, refresh)
			if err != nil {
				WriteError(w, err)
				return
			}
			if out.Reissued {
				w.Header().Set(accessHeader, out.AccessToken)
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, out.Claims)))
		})
	}
}

// RequireAccess verifies the access credential only. It never touches Redis;
// an expired credential is rejected with 401.
func RequireAccess(engine *goToken.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goToken.ErrEngineNotReady)
				return
			}
			accessHeader, _ := engine.HeaderNames()

			token, ok := accessToken(r, accessHeader)
			if !ok {
				WriteError(w, goToken.ErrTokenInvalid)
				return
			}
			res := engine.VerifyAccess(token)
			if !res.Valid() {
				WriteError(w, res.Err())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), *res.Claims)))
		})
	}
}

// accessToken reads the configured header, falling back to an
// "Authorization: Bearer" credential.
func accessToken(r *http.Request, header string) (string, bool) {
	if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
		return v, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
