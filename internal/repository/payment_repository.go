package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartley-studio/service-billing/internal/domain/money"
	paymentDomain "github.com/hartley-studio/service-billing/internal/domain/payment"
	"github.com/hartley-studio/service-billing/pkg/domain"
)

// GormPaymentRepository implements payment.Repository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GORM-based payment repository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID retrieves a payment by its unique ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, err
	}
	return toPaymentDomain(&model), nil
}

// ListByBooking retrieves all payments recorded against a booking.
func (r *GormPaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, nil
}

// ListAll retrieves all payments with pagination (admin).
func (r *GormPaymentRepository) ListAll(ctx context.Context, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&PaymentModel{}).Count(&total)

	var models []PaymentModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i := range models {
		payments[i] = toPaymentDomain(&models[i])
	}
	return payments, total, nil
}

// Save persists a new payment.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	return r.db.WithContext(ctx).Create(model).Error
}

// ApplyRefund performs the refund mutation as one conditional UPDATE. The
// WHERE guard `refunded_cents + amount <= amount_cents` makes two concurrent
// refunds that jointly exceed the refundable amount resolve to exactly one
// winner; the loser gets zero rows affected and a conflict error.
func (r *GormPaymentRepository) ApplyRefund(ctx context.Context, id uuid.UUID, amount money.Cents, reason string, now time.Time) (*paymentDomain.Payment, error) {
	updates := map[string]interface{}{
		"refunded_cents": gorm.Expr("refunded_cents + ?", int64(amount)),
		"status": gorm.Expr(
			"CASE WHEN refunded_cents + ? >= amount_cents THEN 'refunded' ELSE 'partially_refunded' END",
			int64(amount),
		),
		"refunded_at": now,
	}
	if reason != "" {
		updates["notes"] = gorm.Expr(
			"CASE WHEN notes = '' OR notes IS NULL THEN ? ELSE notes || ' | ' || ? END",
			"Refund: "+reason, "Refund: "+reason,
		)
	}

	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND refunded_cents + ? <= amount_cents", id, int64(amount)).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.NewConflictError("refund exceeds refundable amount")
	}

	return r.FindByID(ctx, id)
}

// toPaymentDomain maps a PaymentModel to the domain Payment.
func toPaymentDomain(m *PaymentModel) *paymentDomain.Payment {
	return paymentDomain.Reconstitute(
		m.ID, m.BookingID, m.ClientID,
		money.Cents(m.AmountCents), money.Cents(m.TipCents),
		paymentDomain.Method(m.Method),
		paymentDomain.Status(m.Status),
		money.Cents(m.RefundedCents),
		m.ProcessorPaymentID, m.ProcessorOrderID, m.ReceiptURL, m.Notes,
		m.CreatedAt,
		m.PaidAt, m.RefundedAt,
	)
}

// toPaymentModel maps a domain Payment to a PaymentModel for persistence.
func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:                 p.ID(),
		BookingID:          p.BookingID(),
		ClientID:           p.ClientID(),
		AmountCents:        int64(p.AmountCents()),
		TipCents:           int64(p.TipCents()),
		Method:             string(p.Method()),
		Status:             string(p.Status()),
		RefundedCents:      int64(p.RefundedCents()),
		ProcessorPaymentID: p.ProcessorPaymentID(),
		ProcessorOrderID:   p.ProcessorOrderID(),
		ReceiptURL:         p.ReceiptURL(),
		Notes:              p.Notes(),
		CreatedAt:          p.CreatedAt(),
		PaidAt:             p.PaidAt(),
		RefundedAt:         p.RefundedAt(),
	}
}
