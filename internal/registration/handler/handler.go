// Package handler wires the registration endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/httputil"
	"turnstile/pkg/requestcontext"
)

// Service defines the registration operation consumed by this handler.
type Service interface {
	Register(ctx context.Context, eventID domain.EventID, email domain.Email, answers map[string]models.Answer) (*models.Visitor, error)
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

// Register mounts the registration endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events/{eventID}/registrations", h.HandleRegister)
}

type registerRequest struct {
	Email   string                   `json:"email"`
	Answers map[string]models.Answer `json:"answers"`
}

type visitorResponse struct {
	VisitorID     string     `json:"visitor_id"`
	Token         string     `json:"token"`
	Status        string     `json:"status"`
	EventTitle    string     `json:"event_title"`
	EventLocation string     `json:"event_location"`
	EventStart    time.Time  `json:"event_start"`
	EventEnd      time.Time  `json:"event_end"`
	CheckInTime   *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime  *time.Time `json:"check_out_time,omitempty"`
}

// VisitorResponse renders a visitor for the API. Shared with the check-in
// handler so both surfaces agree on the shape.
func VisitorResponse(v *models.Visitor) any {
	return visitorResponse{
		VisitorID:     v.ID.String(),
		Token:         v.Token,
		Status:        v.Status.String(),
		EventTitle:    v.EventTitle,
		EventLocation: v.EventLocation,
		EventStart:    v.EventStart,
		EventEnd:      v.EventEnd,
		CheckInTime:   v.CheckInTime,
		CheckOutTime:  v.CheckOutTime,
	}
}

// HandleRegister handles POST /events/{eventID}/registrations.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[registerRequest](w, r)
	if !ok {
		return
	}
	email, err := domain.ParseEmail(req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	visitor, err := h.service.Register(ctx, eventID, email, req.Answers)
	if err != nil {
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, VisitorResponse(visitor))
}
