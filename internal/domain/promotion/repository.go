package promotion

import (
	"context"

	"github.com/google/uuid"

	"github.com/hartley-studio/service-billing/internal/domain/money"
)

// Repository defines the persistence contract for promotions.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Promotion, error)

	// FindByCode matches case-insensitively; implementations normalize the
	// code before lookup.
	FindByCode(ctx context.Context, code string) (*Promotion, error)

	Save(ctx context.Context, p *Promotion) error

	// SetActive flips the active flag (promotions are deactivated, never
	// deleted).
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ApplyToBooking sets the booking's promotion reference and discount and
	// increments the promotion's redemption count by one, as a single
	// transaction with an atomic counter increment.
	ApplyToBooking(ctx context.Context, promoID, bookingID uuid.UUID, discount money.Cents) error
}
