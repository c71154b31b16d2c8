package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	goToken "github.com/MrEthical07/goToken"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON body written for every rejected request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an engine error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goToken.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, goToken.ErrTokenExpired),
		errors.Is(err, goToken.ErrTokenInvalid),
		errors.Is(err, goToken.ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, goToken.ErrReissueRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, goToken.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps an engine error to the stable code carried in
// [ErrorResponse.Error].
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, goToken.ErrValidation):
		return "validation"
	case errors.Is(err, goToken.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, goToken.ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, goToken.ErrRefreshInvalid):
		return "refresh_invalid"
	case errors.Is(err, goToken.ErrReissueRateLimited):
		return "rate_limited"
	case errors.Is(err, goToken.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

// WriteError writes err as an [ErrorResponse] with the status from [StatusFor].
func WriteError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	writeStatus(w, code, ErrorCode(err))
}

func writeStatus(w http.ResponseWriter, code int, errCode string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: errCode, Message: http.StatusText(code)})
}

// RequestContext returns the request context carrying the caller IP and the
// request id, so engine audit events can be joined with access logs. The id
// set by chi's RequestID middleware wins over the X-Request-Id header.
func RequestContext(r *http.Request) context.Context {
	id := chimw.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get(chimw.RequestIDHeader)
	}
	ctx := goToken.WithRequestID(r.Context(), id)
	return goToken.WithClientIP(ctx, clientIP(r))
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
