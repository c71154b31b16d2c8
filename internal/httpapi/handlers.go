package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/middleware"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 16

type issueRequest struct {
	UserNo int64    `json:"userNo"`
	Roles  []string `json:"roles"`
}

// payloadResponse mirrors the claims a downstream gateway needs.
type payloadResponse struct {
	UserNo string   `json:"userNo"`
	Roles  []string `json:"roles"`
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: malformed body: %v", goToken.ErrValidation, err))
		return
	}

	p, err := goToken.NewPrincipal(req.UserNo, req.Roles...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.engine.Issue(h.ctx(r), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	access, refresh := h.engine.HeaderNames()
	w.Header().Set(access, pair.AccessToken)
	w.Header().Set(refresh, pair.RefreshToken)
	w.WriteHeader(http.StatusOK)
}

// verify runs behind middleware.Guard, which has already verified or
// reissued the access credential.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeError(w, r, goToken.ErrTokenInvalid)
		return
	}

	access, refresh := h.engine.HeaderNames()
	if w.Header().Get(access) == "" {
		if v := r.Header.Get(access); v != "" {
			w.Header().Set(access, v)
		}
	}
	if v := r.Header.Get(refresh); v != "" {
		w.Header().Set(refresh, v)
	}

	writeJSON(w, http.StatusOK, payloadResponse{UserNo: claims.Subject(), Roles: claims.Roles})
}

func (h *Handler) reissue(w http.ResponseWriter, r *http.Request) {
	accessHeader, refreshHeader := h.engine.HeaderNames()
	refresh := r.Header.Get(refreshHeader)
	if refresh == "" {
		h.writeError(w, r, fmt.Errorf("%w: %s header is required", goToken.ErrValidation, refreshHeader))
		return
	}

	access, err := h.engine.ReissueAccess(h.ctx(r), refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set(accessHeader, access)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	userNo, err := strconv.ParseInt(chi.URLParam(r, "userNo"), 10, 64)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: userNo must be an integer", goToken.ErrValidation))
		return
	}

	if err := h.engine.Logout(h.ctx(r), userNo); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	latency, err := h.engine.Ping(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redis_latency": latency.String()})
}

func (h *Handler) ctx(r *http.Request) context.Context {
	return middleware.RequestContext(r)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if middleware.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	middleware.WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
