package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "confreg/pkg/domain-errors"
)

type staticSecrets struct {
	secretKey string
	splitCode string
}

func (s staticSecrets) PaystackSecretKey(context.Context) (string, error) { return s.secretKey, nil }
func (s staticSecrets) PaystackSplitCode(context.Context) (string, error) { return s.splitCode, nil }

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("successful verification converts amount and parses metadata", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "/transaction/verify/CONF-1-abc", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data": map[string]any{
					"status":    "success",
					"reference": "CONF-1-abc",
					"amount":    2100000,
					"paid_at":   "2026-05-02T10:30:00Z",
					"metadata": map[string]any{
						"custom_fields": []map[string]string{{
							"variable_name": "registration_id",
							"value":         "11111111-2222-3333-4444-555555555555",
						}},
					},
				},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, staticSecrets{secretKey: "sk_test"})
		v, err := client.Verify(ctx, "CONF-1-abc")
		require.NoError(t, err)

		assert.Equal(t, "Bearer sk_test", gotAuth)
		assert.Equal(t, "CONF-1-abc", v.Reference)
		assert.Equal(t, 21000, v.Amount)
		assert.Equal(t, "11111111-2222-3333-4444-555555555555", v.RegistrationID)
		assert.Equal(t, 2026, v.PaidAt.Year())
	})

	t.Run("non-success transaction status is a payment error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data":   map[string]any{"status": "abandoned", "reference": "CONF-2-x"},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, staticSecrets{secretKey: "sk_test"})
		_, err := client.Verify(ctx, "CONF-2-x")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePaymentNotSuccessful))
	})

	t.Run("unknown transaction is not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Transaction reference not found"})
		}))
		defer srv.Close()

		client := New(srv.URL, staticSecrets{secretKey: "sk_test"})
		_, err := client.Verify(ctx, "CONF-3-missing")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("sends amount in minor units with metadata and split code", func(t *testing.T) {
		var gotPayload map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data": map[string]any{
					"authorization_url": "https://checkout.example/xyz",
					"access_code":       "xyz",
					"reference":         "CONF-4-init",
				},
			})
		}))
		defer srv.Close()

		client := New(srv.URL, staticSecrets{secretKey: "sk_test", splitCode: "SPL_1"})
		res, err := client.Initialize(ctx, "a@example.org", 21000, "CONF-4-init", "reg-id", "https://app.example/callback")
		require.NoError(t, err)

		assert.Equal(t, "https://checkout.example/xyz", res.AuthorizationURL)
		assert.Equal(t, float64(2100000), gotPayload["amount"])
		assert.Equal(t, "SPL_1", gotPayload["split_code"])
		assert.Equal(t, "https://app.example/callback", gotPayload["callback_url"])
	})
}

func TestAuthenticateWebhook(t *testing.T) {
	ctx := context.Background()
	client := New("http://unused", staticSecrets{secretKey: "sk_test"})
	body := []byte(`{"event":"charge.success","data":{"reference":"CONF-5-hook"}}`)

	sign := func(secret string, payload []byte) string {
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(payload)
		return hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("valid signature is accepted", func(t *testing.T) {
		ok, err := client.AuthenticateWebhook(ctx, body, sign("sk_test", body))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		ok, err := client.AuthenticateWebhook(ctx, body, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		ok, err := client.AuthenticateWebhook(ctx, body, sign("sk_wrong", body))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		sig := sign("sk_test", body)
		tampered := []byte(`{"event":"charge.success","data":{"reference":"CONF-5-other"}}`)
		ok, err := client.AuthenticateWebhook(ctx, tampered, sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestParseEvent(t *testing.T) {
	t.Run("parses charge success", func(t *testing.T) {
		event, err := ParseEvent([]byte(`{"event":"charge.success","data":{"id":42,"reference":"CONF-6-evt"}}`))
		require.NoError(t, err)
		assert.Equal(t, EventChargeSuccess, event.Event)
		assert.Equal(t, "CONF-6-evt", event.Data.Reference)
		assert.Equal(t, int64(42), event.Data.ID)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
