// Package handler wires the OTP gate endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turnstile/internal/otp/service"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/httputil"
	"turnstile/pkg/requestcontext"
)

// Service defines the OTP gate operations consumed by this handler.
type Service interface {
	RequestCode(ctx context.Context, email domain.Email) error
	Verify(ctx context.Context, email domain.Email, code string) (*service.VerifyResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the OTP endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/otp/request", h.HandleRequest)
	r.Post("/otp/verify", h.HandleVerify)
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyResponse struct {
	Outcome           string `json:"outcome"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}

// HandleRequest handles POST /otp/request.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[requestCodeRequest](w, r)
	if !ok {
		return
	}
	email, err := domain.ParseEmail(req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RequestCode(ctx, email); err != nil {
		h.logger.ErrorContext(ctx, "otp request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleVerify handles POST /otp/verify. All four verification outcomes are
// 200 responses; only malformed input and infrastructure failures map to
// error statuses.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[verifyRequest](w, r)
	if !ok {
		return
	}
	email, err := domain.ParseEmail(req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(ctx, email, req.Code)
	if err != nil {
		h.logger.ErrorContext(ctx, "otp verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := verifyResponse{Outcome: string(result.Outcome)}
	if result.Outcome == service.VerifyInvalidCode {
		remaining := result.AttemptsRemaining
		resp.AttemptsRemaining = &remaining
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
