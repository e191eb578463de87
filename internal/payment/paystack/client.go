// Package paystack adapts the Paystack REST API: transaction verification,
// payment initialization, and webhook authentication. It never caches the
// secret key — every call resolves it through the SecretSource so rotations
// via the settings store take effect immediately.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dErrors "confreg/pkg/domain-errors"
)

// SecretSource resolves gateway credentials at call time. The settings
// service implements it with a persisted-override-then-environment order.
type SecretSource interface {
	PaystackSecretKey(ctx context.Context) (string, error)
	PaystackSplitCode(ctx context.Context) (string, error)
}

// Client calls the Paystack API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	secrets    SecretSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// New constructs a Paystack client against the given base URL.
func New(baseURL string, secrets SecretSource, opts ...Option) *Client {
	cl := &Client{
		baseURL:    baseURL,
		secrets:    secrets,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Verification is the outcome of a transaction verification call.
type Verification struct {
	Reference string
	// Amount in whole currency units. Paystack reports minor units; the
	// adapter divides by 100 at the boundary.
	Amount int
	PaidAt time.Time
	// RegistrationID carries the registration id from gateway metadata when
	// the transaction was initialized with one. Empty otherwise. It backs the
	// fallback lookup for references this system did not generate.
	RegistrationID string
}

// verifyResponse mirrors the relevant parts of Paystack's verify payload.
type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int    `json:"amount"`
		PaidAt    string `json:"paid_at"`
		Metadata  struct {
			CustomFields []struct {
				VariableName string `json:"variable_name"`
				Value        string `json:"value"`
			} `json:"custom_fields"`
		} `json:"metadata"`
	} `json:"data"`
}

// Verify checks a payment reference against the gateway. Any transaction
// status other than "success" is reported as a payment-not-successful domain
// error; the core never retries it.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	secretKey, err := c.secrets.PaystackSecretKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve gateway secret: %w", err)
	}

	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gateway verify: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "gateway has no transaction for reference %s", reference)
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		return nil, dErrors.Newf(dErrors.CodePaymentNotSuccessful, "gateway verification failed for reference %s", reference)
	}
	if body.Data.Status != "success" {
		return nil, dErrors.Newf(dErrors.CodePaymentNotSuccessful, "payment status is %s for reference %s", body.Data.Status, reference)
	}

	v := &Verification{
		Reference: body.Data.Reference,
		Amount:    body.Data.Amount / 100,
	}
	if body.Data.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, body.Data.PaidAt); err == nil {
			v.PaidAt = paidAt
		}
	}
	if v.PaidAt.IsZero() {
		v.PaidAt = time.Now()
	}
	for _, field := range body.Data.Metadata.CustomFields {
		if field.VariableName == "registration_id" {
			v.RegistrationID = field.Value
		}
	}
	return v, nil
}

// InitializeResult carries the hosted-payment session handles back to the
// client that will redirect the attendee.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Initialize creates a hosted-payment session for a registration. The
// registration id rides along as gateway metadata so verification can fall
// back to it when the gateway mints its own reference.
func (c *Client) Initialize(ctx context.Context, email string, amount int, reference, registrationID, callbackURL string) (*InitializeResult, error) {
	secretKey, err := c.secrets.PaystackSecretKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve gateway secret: %w", err)
	}

	payload := map[string]any{
		"email":     email,
		"amount":    amount * 100,
		"reference": reference,
		"metadata": map[string]any{
			"custom_fields": []map[string]string{{
				"display_name":  "Registration ID",
				"variable_name": "registration_id",
				"value":         registrationID,
			}},
		},
	}
	if callbackURL != "" {
		payload["callback_url"] = callbackURL
	}
	if splitCode, err := c.secrets.PaystackSplitCode(ctx); err == nil && splitCode != "" {
		payload["split_code"] = splitCode
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode initialize payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gateway initialize: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status  bool             `json:"status"`
		Message string           `json:"message"`
		Data    InitializeResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !body.Status {
		return nil, dErrors.Newf(dErrors.CodePaymentNotSuccessful, "payment initialization failed: %s", body.Message)
	}
	return &body.Data, nil
}

// AuthenticateWebhook validates a webhook signature: HMAC-SHA512 over the raw
// body with the gateway secret, hex-encoded, compared in constant time.
// Returns false on any mismatch or missing signature; callers must reject the
// webhook before touching any state.
func (c *Client) AuthenticateWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (bool, error) {
	if signatureHeader == "" {
		return false, nil
	}
	secretKey, err := c.secrets.PaystackSecretKey(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve gateway secret: %w", err)
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader)), nil
}

// Event is an inbound webhook event. Only charge.success drives
// reconciliation; other event types are acknowledged and ignored.
type Event struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
	} `json:"data"`
}

// EventChargeSuccess is the event type that triggers reconciliation.
const EventChargeSuccess = "charge.success"

// ParseEvent decodes a webhook body. Call AuthenticateWebhook first.
func ParseEvent(rawBody []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed webhook event")
	}
	return &event, nil
}
