package synclog

import (
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// Kind tags the payload union. Every entry is exactly one of these; the
// payload type is fixed by the kind.
type Kind string

const (
	KindRefundSucceeded    Kind = "refund_succeeded"
	KindRefundFailed       Kind = "refund_failed"
	KindPaymentLinkCreated Kind = "payment_link_created"
	KindPaymentLinkFailed  Kind = "payment_link_failed"
)

// Status is the outcome of the outbound call the entry records.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// RefundPayload is the typed payload for refund entries.
type RefundPayload struct {
	PaymentID          uuid.UUID   `json:"payment_id"`
	ProcessorPaymentID string      `json:"processor_payment_id"`
	AmountCents        money.Cents `json:"amount_cents"`
	Currency           string      `json:"currency"`
	IdempotencyKey     string      `json:"idempotency_key"`
}

// PaymentLinkPayload is the typed payload for payment-link entries.
type PaymentLinkPayload struct {
	BookingID   uuid.UUID   `json:"booking_id"`
	URL         string      `json:"url,omitempty"`
	OrderID     string      `json:"order_id,omitempty"`
	AmountCents money.Cents `json:"amount_cents"`
	LinkType    string      `json:"link_type"`
}

// Entry is one append-only audit record of an outbound processor call.
// Entries are never mutated after creation.
type Entry struct {
	ID           uuid.UUID
	Provider     string
	Direction    string
	Status       Status
	EntityType   string
	EntityID     string
	RemoteID     string
	Kind         Kind
	Message      string
	Payload      interface{}
	ErrorMessage string
	CreatedAt    time.Time
}

func newEntry(provider string, status Status, entityType, entityID, remoteID string, kind Kind, message string, payload interface{}, errMsg string) *Entry {
	return &Entry{
		ID:           uuid.New(),
		Provider:     provider,
		Direction:    "outbound",
		Status:       status,
		EntityType:   entityType,
		EntityID:     entityID,
		RemoteID:     remoteID,
		Kind:         kind,
		Message:      message,
		Payload:      payload,
		ErrorMessage: errMsg,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewRefundSucceeded records a refund the processor accepted.
func NewRefundSucceeded(provider string, p RefundPayload, message string) *Entry {
	return newEntry(provider, StatusSuccess, "payment", p.PaymentID.String(), p.ProcessorPaymentID, KindRefundSucceeded, message, p, "")
}

// NewRefundFailed records a refund the processor rejected or that timed out.
func NewRefundFailed(provider string, p RefundPayload, errMsg string) *Entry {
	return newEntry(provider, StatusFailed, "payment", p.PaymentID.String(), p.ProcessorPaymentID, KindRefundFailed, "refund attempt failed", p, errMsg)
}

// NewPaymentLinkCreated records a hosted checkout link the processor issued.
func NewPaymentLinkCreated(provider string, p PaymentLinkPayload) *Entry {
	return newEntry(provider, StatusSuccess, "booking", p.BookingID.String(), p.OrderID, KindPaymentLinkCreated, "payment link created", p, "")
}

// NewPaymentLinkFailed records a payment-link request that failed.
func NewPaymentLinkFailed(provider string, p PaymentLinkPayload, errMsg string) *Entry {
	return newEntry(provider, StatusFailed, "booking", p.BookingID.String(), "", KindPaymentLinkFailed, "payment link request failed", p, errMsg)
}
