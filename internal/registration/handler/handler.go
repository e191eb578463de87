// Package handler exposes registration creation and the admin surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/httputil"

	"confreg/internal/registration/models"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store/registration"
)

// Service defines the registration operations the endpoints need.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*service.CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	Resend(ctx context.Context, id uuid.UUID) error
	VerifyAttendance(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	List(ctx context.Context, filters registration.Filters) ([]*models.Registration, error)
	Stats(ctx context.Context) (registration.Stats, error)
	EmailLogs(ctx context.Context, registrationID uuid.UUID, limit int) ([]*models.EmailDeliveryLog, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleCreate)
}

// RegisterAdmin mounts the administrative registration endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/registrations", h.HandleList)
	r.Get("/registrations/stats", h.HandleStats)
	r.Get("/registrations/{id}", h.HandleGet)
	r.Post("/registrations/{id}/resend-confirmation", h.HandleResend)
	r.Post("/registrations/{id}/verify-attendance", h.HandleVerifyAttendance)
	r.Get("/email-logs", h.HandleEmailLogs)
}

// HandleCreate handles POST /registrations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, ok := httputil.Decode[service.CreateInput](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Create(ctx, in)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected", "email", in.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleGet handles GET /admin/registrations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reg, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

// HandleResend handles POST /admin/registrations/{id}/resend-confirmation.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Resend(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

// HandleVerifyAttendance handles POST /admin/registrations/{id}/verify-attendance.
func (h *Handler) HandleVerifyAttendance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reg, err := h.service.VerifyAttendance(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

// HandleList handles GET /admin/registrations with optional status, category,
// and search filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := registration.Filters{
		PaymentStatus: models.PaymentStatus(q.Get("status")),
		Category:      models.Category(q.Get("category")),
		Search:        q.Get("search"),
	}
	regs, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list registrations", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"registrations": regs,
		"count":         len(regs),
	})
}

// HandleStats handles GET /admin/registrations/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to aggregate stats", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleEmailLogs handles GET /admin/email-logs, optionally scoped by
// registration_id, newest first.
func (h *Handler) HandleEmailLogs(w http.ResponseWriter, r *http.Request) {
	var registrationID uuid.UUID
	if raw := r.URL.Query().Get("registration_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration_id"))
			return
		}
		registrationID = parsed
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.service.EmailLogs(r.Context(), registrationID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logs": logs, "count": len(logs)})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return uuid.Nil, false
	}
	return id, true
}
