package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_123456789",
		SuccessURL:    "https://shop.test/checkout/success",
		CancelURL:     "https://shop.test/checkout/cancel",
		Currency:      "usd",
	}
}

func TestNewStripeGateway(t *testing.T) {
	t.Run("accepts valid config", func(t *testing.T) {
		gateway, err := NewStripeGateway(testConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, gateway)
	})

	t.Run("rejects missing secret key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = ""
		_, err := NewStripeGateway(cfg, zap.NewNop())
		assert.ErrorContains(t, err, "secret key is required")
	})

	t.Run("rejects malformed secret key", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "pk_test_wrong_kind"
		_, err := NewStripeGateway(cfg, zap.NewNop())
		assert.ErrorContains(t, err, "sk_")
	})
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	gateway, err := NewStripeGateway(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("creates session", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "POST", method)
			assert.Contains(t, path, "/checkout/sessions")
			return json.Marshal(map[string]any{
				"id":  "cs_test_abc123",
				"url": "https://checkout.stripe.com/c/pay/cs_test_abc123",
			})
		})
		defer cleanup()

		sess, err := gateway.CreateCheckoutSession(context.Background(), CreateSessionInput{
			UserID: uuid.New(),
			Items: []CheckoutItem{
				{Name: "Mug", Quantity: 2, UnitAmount: 1000},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "cs_test_abc123", sess.SessionID)
		assert.NotEmpty(t, sess.URL)
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		_, err := gateway.CreateCheckoutSession(context.Background(), CreateSessionInput{
			UserID: uuid.New(),
		})
		assert.Error(t, err)
	})

	t.Run("propagates provider errors", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, fmt.Errorf("stripe is down")
		})
		defer cleanup()

		_, err := gateway.CreateCheckoutSession(context.Background(), CreateSessionInput{
			UserID: uuid.New(),
			Items:  []CheckoutItem{{Name: "Mug", Quantity: 1, UnitAmount: 500}},
		})
		assert.Error(t, err)
	})
}

func TestStripeGateway_RetrieveSession(t *testing.T) {
	gateway, err := NewStripeGateway(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("returns paid status and user from metadata", func(t *testing.T) {
		userID := uuid.New()
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "GET", method)
			assert.Contains(t, path, "/checkout/sessions/cs_test_abc123")
			return json.Marshal(map[string]any{
				"id":             "cs_test_abc123",
				"payment_status": "paid",
				"metadata":       map[string]string{"user_id": userID.String()},
			})
		})
		defer cleanup()

		status, err := gateway.RetrieveSession(context.Background(), "cs_test_abc123")

		require.NoError(t, err)
		assert.True(t, status.Paid)
		assert.Equal(t, userID, status.UserID)
	})

	t.Run("unpaid session", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return json.Marshal(map[string]any{
				"id":             "cs_test_open",
				"payment_status": "unpaid",
			})
		})
		defer cleanup()

		status, err := gateway.RetrieveSession(context.Background(), "cs_test_open")

		require.NoError(t, err)
		assert.False(t, status.Paid)
		assert.Equal(t, uuid.Nil, status.UserID)
	})

	t.Run("rejects empty session id", func(t *testing.T) {
		_, err := gateway.RetrieveSession(context.Background(), "")
		assert.Error(t, err)
	})
}

// signPayload produces a Stripe-Signature header value for the payload
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d", at.Unix())))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeGateway_VerifyWebhook(t *testing.T) {
	cfg := testConfig()
	gateway, err := NewStripeGateway(cfg, zap.NewNop())
	require.NoError(t, err)

	completedEvent := func() []byte {
		sess, _ := json.Marshal(map[string]any{
			"id":             "cs_test_done",
			"payment_status": "paid",
		})
		payload, _ := json.Marshal(map[string]any{
			"id":   "evt_123",
			"type": "checkout.session.completed",
			"data": map[string]any{"object": json.RawMessage(sess)},
		})
		return payload
	}

	t.Run("accepts valid signature and reports payment", func(t *testing.T) {
		payload := completedEvent()
		signature := signPayload(payload, cfg.WebhookSecret, time.Now())

		event, err := gateway.VerifyWebhook(payload, signature)

		require.NoError(t, err)
		assert.Equal(t, "evt_123", event.EventID)
		assert.Equal(t, "cs_test_done", event.SessionID)
		assert.True(t, event.Paid)
	})

	t.Run("rejects tampered payload", func(t *testing.T) {
		payload := completedEvent()
		signature := signPayload(payload, cfg.WebhookSecret, time.Now())
		tampered := bytes.Replace(payload, []byte("cs_test_done"), []byte("cs_test_evil"), 1)

		_, err := gateway.VerifyWebhook(tampered, signature)
		assert.Error(t, err)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		payload := completedEvent()
		signature := signPayload(payload, "whsec_other", time.Now())

		_, err := gateway.VerifyWebhook(payload, signature)
		assert.Error(t, err)
	})
}
