package repository

import (
	"time"

	"github.com/google/uuid"
)

// BookingModel is the GORM persistence model for the bookings table.
// Scheduling owns most of this row; billing reads it and writes only the
// discount, instrument references and processor order reference.
type BookingModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	ServiceID        uuid.UUID  `gorm:"type:uuid;not null"`
	ServiceName      string     `gorm:"type:varchar(255);not null"`
	ServiceCategory  string     `gorm:"type:varchar(100)"`
	ScheduledAt      time.Time  `gorm:"type:timestamptz;not null"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"`
	TotalCents       int64      `gorm:"not null"`
	DiscountCents    int64      `gorm:"not null;default:0"`
	DepositCents     int64      `gorm:"not null;default:0"`
	ProcessorOrderID string     `gorm:"type:varchar(255)"`
	GiftCardID       *uuid.UUID `gorm:"type:uuid"`
	PromotionID      *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// PaymentModel is the GORM persistence model for the payments table.
type PaymentModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountCents        int64      `gorm:"not null"`
	TipCents           int64      `gorm:"not null;default:0"`
	Method             string     `gorm:"type:varchar(20);not null"`
	Status             string     `gorm:"type:varchar(20);not null;default:'paid'"`
	RefundedCents      int64      `gorm:"not null;default:0"`
	ProcessorPaymentID string     `gorm:"type:varchar(255);index"`
	ProcessorOrderID   string     `gorm:"type:varchar(255)"`
	ReceiptURL         string     `gorm:"type:text"`
	Notes              string     `gorm:"type:text"`
	CreatedAt          time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	PaidAt             *time.Time `gorm:"type:timestamptz"`
	RefundedAt         *time.Time `gorm:"type:timestamptz"`
}

// TableName specifies the table name for GORM.
func (PaymentModel) TableName() string { return "payments" }

// GiftCardModel is the GORM persistence model for the gift_cards table.
type GiftCardModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code          string     `gorm:"type:varchar(20);uniqueIndex;not null"`
	PurchaserID   *uuid.UUID `gorm:"type:uuid"`
	RecipientName string     `gorm:"type:varchar(255)"`
	OriginalCents int64      `gorm:"not null"`
	BalanceCents  int64      `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'active'"`
	PurchasedAt   time.Time  `gorm:"type:timestamptz;not null"`
	ExpiresAt     *time.Time `gorm:"type:timestamptz"`
}

// TableName specifies the table name for GORM.
func (GiftCardModel) TableName() string { return "gift_cards" }

// PromotionModel is the GORM persistence model for the promotions table.
type PromotionModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code            string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	DiscountType    string     `gorm:"type:varchar(20);not null"`
	DiscountValue   int64      `gorm:"not null"`
	ServiceCategory string     `gorm:"type:varchar(100)"`
	MaxUses         int        `gorm:"not null;default:0"`
	RedemptionCount int        `gorm:"not null;default:0"`
	Active          bool       `gorm:"not null;default:true"`
	StartsAt        *time.Time `gorm:"type:timestamptz"`
	EndsAt          *time.Time `gorm:"type:timestamptz"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (PromotionModel) TableName() string { return "promotions" }

// SyncLogModel is the GORM persistence model for the sync_log table.
// Rows are inserted and never updated.
type SyncLogModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider     string    `gorm:"type:varchar(50);not null"`
	Direction    string    `gorm:"type:varchar(20);not null"`
	Status       string    `gorm:"type:varchar(20);not null"`
	EntityType   string    `gorm:"type:varchar(50);not null"`
	EntityID     string    `gorm:"type:varchar(64);not null;index"`
	RemoteID     string    `gorm:"type:varchar(255)"`
	Kind         string    `gorm:"type:varchar(50);not null;index"`
	Message      string    `gorm:"type:text"`
	Payload      []byte    `gorm:"type:jsonb"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (SyncLogModel) TableName() string { return "sync_log" }
