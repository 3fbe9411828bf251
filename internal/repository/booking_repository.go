package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// GormBookingRepository implements booking.Repository using GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GORM-based booking repository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	return r.db.WithContext(ctx).Create(model).Error
}

// SetProcessorOrderID stores the order reference first-writer-wins: an
// existing reference, e.g. written by point-of-sale, is never overwritten.
func (r *GormBookingRepository) SetProcessorOrderID(ctx context.Context, id uuid.UUID, orderID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND (processor_order_id IS NULL OR processor_order_id = '')", id).
		Update("processor_order_id", orderID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// toBookingDomain maps a BookingModel to the domain Booking.
func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		m.ID, m.ClientID, m.ServiceID,
		m.ServiceName, m.ServiceCategory,
		m.ScheduledAt,
		bookingDomain.Status(m.Status),
		money.Cents(m.TotalCents), money.Cents(m.DiscountCents), money.Cents(m.DepositCents),
		m.ProcessorOrderID,
		m.GiftCardID, m.PromotionID,
		m.CreatedAt, m.UpdatedAt,
	)
}

// toBookingModel maps a domain Booking to a BookingModel for persistence.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:               b.ID(),
		ClientID:         b.ClientID(),
		ServiceID:        b.ServiceID(),
		ServiceName:      b.ServiceName(),
		ServiceCategory:  b.ServiceCategory(),
		ScheduledAt:      b.ScheduledAt(),
		Status:           string(b.Status()),
		TotalCents:       int64(b.TotalCents()),
		DiscountCents:    int64(b.DiscountCents()),
		DepositCents:     int64(b.DepositCents()),
		ProcessorOrderID: b.ProcessorOrderID(),
		GiftCardID:       b.GiftCardID(),
		PromotionID:      b.PromotionID(),
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
	}
}
