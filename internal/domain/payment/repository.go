package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// Repository defines the persistence contract for Payment records.
type Repository interface {
	// FindByID retrieves a payment by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// ListByBooking retrieves all payments recorded against a booking.
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)

	// ListAll retrieves all payments with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Payment, int64, error)

	// Save persists a new payment.
	Save(ctx context.Context, p *Payment) error

	// ApplyRefund atomically adds amount to the payment's refunded total,
	// advances the status, appends the reason to notes and stamps refundedAt.
	// The write is conditional on refunded + amount <= amount_cents; when the
	// guard fails (a concurrent refund won the row) it returns a conflict
	// error and mutates nothing.
	ApplyRefund(ctx context.Context, id uuid.UUID, amount money.Cents, reason string, now time.Time) (*Payment, error)
}
