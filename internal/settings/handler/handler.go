// Package handler exposes the admin settings endpoints used to rotate
// gateway credentials without a redeploy.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/httputil"

	"confreg/internal/settings"
)

// Service defines the settings operations the endpoints need.
type Service interface {
	List(ctx context.Context) ([]*settings.Setting, error)
	SetPaystackKeys(ctx context.Context, publicKey, secretKey, splitCode string) error
}

// Handler wires settings endpoints to the settings service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a settings handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the settings endpoints. These belong behind the admin
// token middleware; they are never public.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/settings", h.HandleList)
	r.Put("/settings/paystack", h.HandleSetPaystack)
}

// HandleList handles GET /admin/settings. Encrypted values arrive redacted
// from the service; nothing secret leaves this endpoint.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list settings", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"settings": items})
}

// HandleSetPaystack handles PUT /admin/settings/paystack.
func (h *Handler) HandleSetPaystack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[struct {
		PublicKey string `json:"public_key"`
		SecretKey string `json:"secret_key"`
		SplitCode string `json:"split_code"`
	}](w, r, h.logger)
	if !ok {
		return
	}
	if req.SecretKey == "" && req.PublicKey == "" && req.SplitCode == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no settings provided"))
		return
	}

	if err := h.service.SetPaystackKeys(ctx, req.PublicKey, req.SecretKey, req.SplitCode); err != nil {
		h.logger.ErrorContext(ctx, "failed to update gateway settings", "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "gateway settings updated")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
