package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// defaultCallTimeout bounds every outbound call; the processor API can hang
// and callers must not inherit an unbounded wait.
const defaultCallTimeout = 15 * time.Second

// HTTPProcessorAdapter talks to the processor's REST API. The vendor surface
// is small enough (get payment, refund, payment link) that it is called
// directly rather than through a vendor SDK.
type HTTPProcessorAdapter struct {
	provider string
	baseURL  string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPProcessorAdapter creates a live processor adapter.
func NewHTTPProcessorAdapter(provider, baseURL, token string, logger *zap.Logger) *HTTPProcessorAdapter {
	return &HTTPProcessorAdapter{
		provider: provider,
		baseURL:  baseURL,
		token:    token,
		client:   &http.Client{Timeout: defaultCallTimeout},
		logger:   logger,
	}
}

// Name identifies the configured provider.
func (a *HTTPProcessorAdapter) Name() string { return a.provider }

// GetPayment fetches receipt and order metadata for a processor payment.
func (a *HTTPProcessorAdapter) GetPayment(ctx context.Context, processorPaymentID string) (PaymentDetails, error) {
	var out struct {
		ReceiptURL string `json:"receipt_url"`
		OrderID    string `json:"order_id"`
	}
	err := a.do(ctx, http.MethodGet, "/v2/payments/"+processorPaymentID, "", nil, &out)
	if err != nil {
		return PaymentDetails{}, err
	}
	return PaymentDetails{ReceiptURL: out.ReceiptURL, OrderID: out.OrderID}, nil
}

// RefundPayment issues a refund, passing the idempotency key so the processor
// deduplicates retries of the same logical refund.
func (a *HTTPProcessorAdapter) RefundPayment(ctx context.Context, idempotencyKey, processorPaymentID string, amount money.Cents, currency, reason string) error {
	body := map[string]interface{}{
		"payment_id": processorPaymentID,
		"amount":     int64(amount),
		"currency":   currency,
		"reason":     reason,
	}
	return a.do(ctx, http.MethodPost, "/v2/refunds", idempotencyKey, body, nil)
}

// CreatePaymentLink requests a hosted checkout page.
func (a *HTTPProcessorAdapter) CreatePaymentLink(ctx context.Context, bookingID uuid.UUID, serviceName string, amount money.Cents, linkType string) (PaymentLink, error) {
	body := map[string]interface{}{
		"reference_id": bookingID.String(),
		"name":         serviceName,
		"amount":       int64(amount),
		"link_type":    linkType,
	}
	var out struct {
		URL     string `json:"url"`
		OrderID string `json:"order_id"`
	}
	if err := a.do(ctx, http.MethodPost, "/v2/payment-links", "", body, &out); err != nil {
		return PaymentLink{}, err
	}
	return PaymentLink{URL: out.URL, OrderID: out.OrderID}, nil
}

func (a *HTTPProcessorAdapter) do(ctx context.Context, method, path, idempotencyKey string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		a.logger.Warn("processor returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("processor returned %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
