// Package handler exposes the payment reconciliation endpoints: the
// client-polled verification routes, the browser callback, and the gateway
// webhook. All of them converge on the same ConfirmPayment operation, which
// is what makes their concurrent arrival safe.
package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/httputil"

	"confreg/internal/payment/dedupe"
	"confreg/internal/payment/paystack"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/models"
)

// Service is the reconciliation surface the payment endpoints need.
type Service interface {
	ConfirmPayment(ctx context.Context, reference string) (*models.Registration, error)
}

// Authenticator validates webhook signatures against the gateway secret.
// Satisfied by *paystack.Client.
type Authenticator interface {
	AuthenticateWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (bool, error)
}

// Handler wires payment endpoints to the registration service.
type Handler struct {
	service Service
	auth    Authenticator
	dedupe  *dedupe.RedisStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a payment handler with its dependencies. The dedupe store
// may be nil, which disables webhook redelivery short-circuiting.
func New(service Service, auth Authenticator, dedupeStore *dedupe.RedisStore, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		auth:    auth,
		dedupe:  dedupeStore,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts the public payment endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/registrations/verify-payment/{reference}", h.HandleVerifyPath)
	r.Post("/payment/verify", h.HandleVerifyBody)
	r.Get("/payment/callback", h.HandleCallback)
	r.Post("/payment/webhook", h.HandleWebhook)
}

// RegisterAdmin mounts the admin requery endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/payments/requery", h.HandleRequery)
}

type confirmResponse struct {
	Status       string               `json:"status"`
	Registration *models.Registration `json:"registration"`
}

// HandleVerifyPath handles GET /registrations/verify-payment/{reference},
// polled by the client after redirecting the attendee to the payment page.
func (h *Handler) HandleVerifyPath(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, chi.URLParam(r, "reference"))
}

// HandleVerifyBody handles POST /payment/verify.
func (h *Handler) HandleVerifyBody(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[struct {
		Reference string `json:"reference"`
	}](w, r, h.logger)
	if !ok {
		return
	}
	h.confirm(w, r, req.Reference)
}

// HandleCallback handles GET /payment/callback, the gateway's browser return
// URL. Paystack appends the transaction reference as a query parameter.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		reference = r.URL.Query().Get("trxref")
	}
	h.confirm(w, r, reference)
}

// HandleRequery handles POST /admin/payments/requery, the manual
// reconciliation path for payments the webhook and callback both missed.
func (h *Handler) HandleRequery(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[struct {
		Reference string `json:"reference"`
	}](w, r, h.logger)
	if !ok {
		return
	}
	h.confirm(w, r, req.Reference)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request, reference string) {
	ctx := r.Context()
	if reference == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "payment reference is required"))
		return
	}

	reg, err := h.service.ConfirmPayment(ctx, reference)
	if err != nil {
		h.logger.WarnContext(ctx, "payment verification failed", "reference", reference, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, confirmResponse{Status: "success", Registration: reg})
}

// HandleWebhook handles POST /payment/webhook. The signature is checked
// before anything else; an unauthenticated request is rejected without
// touching any state. Once authenticated, the gateway always gets a 200 ack:
// redelivering an event cannot fix a data problem on our side, and
// reconciliation is idempotent anyway.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
		return
	}

	ok, err := h.auth.AuthenticateWebhook(ctx, rawBody, r.Header.Get("x-paystack-signature"))
	if err != nil {
		h.logger.ErrorContext(ctx, "webhook signature check failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "signature check failed"))
		return
	}
	if !ok {
		h.metrics.IncrementWebhooksRejected()
		h.logger.WarnContext(ctx, "webhook rejected: invalid signature", "remote_addr", r.RemoteAddr)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook signature"))
		return
	}

	event, err := paystack.ParseEvent(rawBody)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if event.Event != paystack.EventChargeSuccess {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	eventID := webhookEventID(event)
	if seen, err := h.dedupe.Seen(ctx, eventID); err != nil {
		h.logger.WarnContext(ctx, "webhook dedupe check failed", "event_id", eventID, "error", err)
	} else if seen {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	if _, err := h.service.ConfirmPayment(ctx, event.Data.Reference); err != nil {
		// Acknowledged regardless: the gateway retrying won't change the
		// outcome, and anything transient is covered by requery.
		h.logger.ErrorContext(ctx, "webhook reconciliation failed",
			"reference", event.Data.Reference, "error", err)
	} else if err := h.dedupe.Mark(ctx, eventID); err != nil {
		h.logger.WarnContext(ctx, "webhook dedupe mark failed", "event_id", eventID, "error", err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func webhookEventID(event *paystack.Event) string {
	if event.Data.ID != 0 {
		return fmt.Sprintf("%s:%d", event.Event, event.Data.ID)
	}
	return fmt.Sprintf("%s:%s", event.Event, event.Data.Reference)
}
