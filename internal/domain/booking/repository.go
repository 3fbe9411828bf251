package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking records. The
// billing engine never creates or deletes bookings; it reads them and applies
// discounts and processor order references.
type Repository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Save persists a new booking (used by seeding and tests; scheduling
	// owns booking creation in production).
	Save(ctx context.Context, b *Booking) error

	// SetProcessorOrderID stores the external order reference only when the
	// booking does not already carry one. Returns true when the write
	// happened, false when an existing reference was kept.
	SetProcessorOrderID(ctx context.Context, id uuid.UUID, orderID string) (bool, error)
}
