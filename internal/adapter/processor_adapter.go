package adapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// PaymentDetails is the enrichment data the processor exposes for a payment.
type PaymentDetails struct {
	ReceiptURL string
	OrderID    string
}

// PaymentLink is a hosted checkout URL plus the processor's order reference.
type PaymentLink struct {
	URL     string
	OrderID string
}

// ProcessorAdapter is the Anti-Corruption Layer interface for the external
// payment processor. The concrete vendor is pluggable; the billing engine
// only ever talks through this surface.
type ProcessorAdapter interface {
	// Name identifies the provider for reconciliation-log entries.
	Name() string

	// GetPayment looks up receipt URL and order reference for a processor
	// payment. Used for best-effort enrichment; failures are non-fatal.
	GetPayment(ctx context.Context, processorPaymentID string) (PaymentDetails, error)

	// RefundPayment issues a refund for the exact amount and currency.
	// The idempotency key lets the processor deduplicate retried requests
	// for the same logical refund.
	RefundPayment(ctx context.Context, idempotencyKey, processorPaymentID string, amount money.Cents, currency, reason string) error

	// CreatePaymentLink requests a hosted checkout page for the booking.
	CreatePaymentLink(ctx context.Context, bookingID uuid.UUID, serviceName string, amount money.Cents, linkType string) (PaymentLink, error)
}

// MockProcessorAdapter is a development/testing implementation that simulates
// the processor without a vendor account.
type MockProcessorAdapter struct {
	logger *zap.Logger
}

// NewMockProcessorAdapter creates a mock adapter for development.
func NewMockProcessorAdapter(logger *zap.Logger) *MockProcessorAdapter {
	return &MockProcessorAdapter{logger: logger}
}

// Name identifies the mock provider.
func (m *MockProcessorAdapter) Name() string { return "mock" }

// GetPayment simulates a payment lookup.
func (m *MockProcessorAdapter) GetPayment(ctx context.Context, processorPaymentID string) (PaymentDetails, error) {
	details := PaymentDetails{
		ReceiptURL: fmt.Sprintf("https://pay.example.test/receipts/%s", processorPaymentID),
		OrderID:    fmt.Sprintf("order_mock_%s", uuid.New().String()[:8]),
	}
	m.logger.Info("[MOCK PROCESSOR] payment fetched",
		zap.String("processor_payment_id", processorPaymentID),
	)
	return details, nil
}

// RefundPayment simulates a refund.
func (m *MockProcessorAdapter) RefundPayment(ctx context.Context, idempotencyKey, processorPaymentID string, amount money.Cents, currency, reason string) error {
	m.logger.Info("[MOCK PROCESSOR] refund created",
		zap.String("processor_payment_id", processorPaymentID),
		zap.String("idempotency_key", idempotencyKey),
		zap.Int64("amount_cents", int64(amount)),
		zap.String("currency", currency),
	)
	return nil
}

// CreatePaymentLink simulates a hosted checkout link.
func (m *MockProcessorAdapter) CreatePaymentLink(ctx context.Context, bookingID uuid.UUID, serviceName string, amount money.Cents, linkType string) (PaymentLink, error) {
	link := PaymentLink{
		URL:     fmt.Sprintf("https://pay.example.test/checkout/%s", uuid.New().String()[:8]),
		OrderID: fmt.Sprintf("order_mock_%s", uuid.New().String()[:8]),
	}
	m.logger.Info("[MOCK PROCESSOR] payment link created",
		zap.String("booking_id", bookingID.String()),
		zap.String("service_name", serviceName),
		zap.Int64("amount_cents", int64(amount)),
		zap.String("link_type", linkType),
	)
	return link, nil
}
