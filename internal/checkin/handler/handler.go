// Package handler wires the check-in endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"turnstile/internal/checkin/device"
	"turnstile/internal/checkin/service"
	reghandler "turnstile/internal/registration/handler"
	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/httputil"
	"turnstile/pkg/requestcontext"
)

// Service defines the check-in operations consumed by this handler.
type Service interface {
	CheckInByToken(ctx context.Context, token, deviceInfo string) (*service.Result, error)
	CheckIn(ctx context.Context, visitorID domain.VisitorID, entryType domain.EntryType, deviceInfo string) (*service.Result, error)
	CheckOut(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, error)
	Cancel(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, error)
	GetVisitor(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, []models.ScanRecord, error)
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

// Register mounts the check-in endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/checkin/scan", h.HandleScan)
	r.Post("/checkin/manual", h.HandleManual)
	r.Post("/visitors/{visitorID}/checkout", h.HandleCheckOut)
	r.Post("/visitors/{visitorID}/cancel", h.HandleCancel)
	r.Get("/visitors/{visitorID}", h.HandleGetVisitor)
}

type scanRequest struct {
	Token string `json:"token"`
}

type manualRequest struct {
	VisitorID string `json:"visitor_id"`
}

type checkInResponse struct {
	Status  string `json:"status"`
	Visitor any    `json:"visitor"`
}

type scanRecordResponse struct {
	ScanTime     time.Time `json:"scan_time"`
	EntryType    string    `json:"entry_type"`
	ResultStatus string    `json:"result_status"`
	DeviceInfo   string    `json:"device_info"`
}

type visitorDetailResponse struct {
	Visitor any                  `json:"visitor"`
	Scans   []scanRecordResponse `json:"scans"`
}

// HandleScan handles POST /checkin/scan. A duplicate scan is a 200 with
// status "already_checked_in"; only malformed tokens and infrastructure
// failures map to error statuses.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[scanRequest](w, r)
	if !ok {
		return
	}

	result, err := h.service.CheckInByToken(ctx, req.Token, device.ParseUserAgent(requestcontext.UserAgent(ctx)))
	if err != nil {
		h.logger.ErrorContext(ctx, "scan check-in failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	writeCheckInResult(w, result)
}

// HandleManual handles POST /checkin/manual: staff enters the visitor id
// directly when a badge will not scan.
func (h *Handler) HandleManual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[manualRequest](w, r)
	if !ok {
		return
	}
	visitorID, err := domain.ParseVisitorID(req.VisitorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CheckIn(ctx, visitorID, domain.EntryManual, device.ParseUserAgent(requestcontext.UserAgent(ctx)))
	if err != nil {
		h.logger.ErrorContext(ctx, "manual check-in failed",
			"request_id", requestcontext.RequestID(ctx),
			"visitor_id", visitorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	writeCheckInResult(w, result)
}

// HandleCheckOut handles POST /visitors/{visitorID}/checkout.
func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "check-out", h.service.CheckOut)
}

// HandleCancel handles POST /visitors/{visitorID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel", h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, op func(context.Context, domain.VisitorID) (*models.Visitor, error)) {
	ctx := r.Context()

	visitorID, err := domain.ParseVisitorID(chi.URLParam(r, "visitorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	visitor, err := op(ctx, visitorID)
	if err != nil {
		h.logger.ErrorContext(ctx, name+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"visitor_id", visitorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reghandler.VisitorResponse(visitor))
}

// HandleGetVisitor handles GET /visitors/{visitorID}.
func (h *Handler) HandleGetVisitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	visitorID, err := domain.ParseVisitorID(chi.URLParam(r, "visitorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	visitor, scans, err := h.service.GetVisitor(ctx, visitorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := visitorDetailResponse{Visitor: reghandler.VisitorResponse(visitor)}
	for _, rec := range scans {
		resp.Scans = append(resp.Scans, scanRecordResponse{
			ScanTime:     rec.ScanTime,
			EntryType:    rec.EntryType.String(),
			ResultStatus: rec.ResultStatus.String(),
			DeviceInfo:   rec.DeviceInfo,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func writeCheckInResult(w http.ResponseWriter, result *service.Result) {
	status := "checked_in"
	if result.AlreadyCheckedIn {
		status = "already_checked_in"
	}
	httputil.WriteJSON(w, http.StatusOK, checkInResponse{
		Status:  status,
		Visitor: reghandler.VisitorResponse(result.Visitor),
	})
}
