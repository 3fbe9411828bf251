//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/internal/events"
	"github.com/hartley-studio/service-billing/internal/repository"
)

// TestRefundLifecycle walks a card payment through a partial refund, a final
// refund, and an overdraw attempt, checking the rows and the published event.
func TestRefundLifecycle(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	clientID := uuid.New()
	bookingID := seedBookingRow(t, infra.DB, clientID, 20000)
	paymentID := seedPaymentRow(t, infra.DB, bookingID, clientID, 18000, "pi_mock_refund01")

	res, err := stack.Refunds.ProcessRefund(ctx, uuid.New(), paymentID, 5000, "schedule change")
	require.NoError(t, err)
	require.True(t, res.Success, "partial refund should succeed: %s", res.Error)

	var model repository.PaymentModel
	require.NoError(t, infra.DB.First(&model, "id = ?", paymentID).Error)
	assert.EqualValues(t, 5000, model.RefundedCents)
	assert.Equal(t, "partially_refunded", model.Status)
	assert.Contains(t, model.Notes, "Refund: schedule change")
	assert.NotNil(t, model.RefundedAt)

	res, err = stack.Refunds.ProcessRefund(ctx, uuid.New(), paymentID, 13000, "cancelled")
	require.NoError(t, err)
	require.True(t, res.Success)

	require.NoError(t, infra.DB.First(&model, "id = ?", paymentID).Error)
	assert.EqualValues(t, 18000, model.RefundedCents)
	assert.Equal(t, "refunded", model.Status)

	res, err = stack.Refunds.ProcessRefund(ctx, uuid.New(), paymentID, 1, "")
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, "Maximum refundable amount is $0.00", res.Error)

	// one sync_log row per processor call
	var logCount int64
	require.NoError(t, infra.DB.Model(&repository.SyncLogModel{}).
		Where("kind = ?", "refund_succeeded").Count(&logCount).Error)
	assert.EqualValues(t, 2, logCount)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBillingEvents,
		events.PaymentRefunded, 15*time.Second)
	var refunded events.PaymentRefundedEvent
	require.NoError(t, ce.ParseData(&refunded))
	assert.Equal(t, paymentID, refunded.PaymentID)
	assert.Equal(t, bookingID, refunded.BookingID)
}

// TestRefundConcurrentAttempts fires two refunds at the same payment and
// checks that exactly one lands.
func TestRefundConcurrentAttempts(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	clientID := uuid.New()
	bookingID := seedBookingRow(t, infra.DB, clientID, 20000)
	paymentID := seedPaymentRow(t, infra.DB, bookingID, clientID, 18000, "pi_mock_race01")

	results := make(chan application.RefundResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r, rerr := stack.Refunds.ProcessRefund(ctx, uuid.New(), paymentID, 10000, "race")
			if rerr != nil {
				r = application.RefundResult{Success: false, Error: rerr.Error()}
			}
			results <- r
		}()
	}

	successes := 0
	for i := 0; i < 2; i++ {
		if r := <-results; r.Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent refund should win")

	var model repository.PaymentModel
	require.NoError(t, infra.DB.First(&model, "id = ?", paymentID).Error)
	assert.EqualValues(t, 10000, model.RefundedCents)
}

// TestGiftCardRedemptionRoundTrip issues a card and draws it down against a
// booking, checking both rows move together.
func TestGiftCardRedemptionRoundTrip(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	card, err := stack.GiftCards.CreateGiftCard(ctx, application.CreateGiftCardRequest{AmountCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, "GC-001", card.Code)

	second, err := stack.GiftCards.CreateGiftCard(ctx, application.CreateGiftCardRequest{AmountCents: 5000})
	require.NoError(t, err)
	assert.Equal(t, "GC-002", second.Code)

	bookingID := seedBookingRow(t, infra.DB, uuid.New(), 20000)

	res, err := stack.GiftCards.RedeemGiftCard(ctx, bookingID, card.ID, 10000)
	require.NoError(t, err)
	require.True(t, res.Success, "redemption should succeed: %s", res.Error)
	assert.EqualValues(t, 0, res.BalanceCents)

	var cardModel repository.GiftCardModel
	require.NoError(t, infra.DB.First(&cardModel, "id = ?", card.ID).Error)
	assert.EqualValues(t, 0, cardModel.BalanceCents)
	assert.Equal(t, "redeemed", cardModel.Status)

	var bookingModel repository.BookingModel
	require.NoError(t, infra.DB.First(&bookingModel, "id = ?", bookingID).Error)
	require.NotNil(t, bookingModel.GiftCardID)
	assert.Equal(t, card.ID, *bookingModel.GiftCardID)
	assert.EqualValues(t, 10000, bookingModel.DiscountCents)

	// a spent card rejects further draws
	res, err = stack.GiftCards.RedeemGiftCard(ctx, bookingID, card.ID, 1)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

// TestPromotionApplyIncrementsCounter applies a capped percent code and
// checks the discount, the counter, and the follow-up validation verdict.
func TestPromotionApplyIncrementsCounter(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	created, err := stack.Promotions.CreatePromotion(ctx, application.CreatePromotionRequest{
		Code: "SAVE20", DiscountType: "percent", DiscountValue: 20, MaxUses: 1,
	})
	require.NoError(t, err)

	verdict, err := stack.Promotions.ValidatePromoCode(ctx, "save20", "photography")
	require.NoError(t, err)
	require.True(t, verdict.Valid)
	assert.Equal(t, "percent", verdict.DiscountType)

	bookingID := seedBookingRow(t, infra.DB, uuid.New(), 18500)

	res, err := stack.Promotions.ApplyPromoCode(ctx, bookingID, "SAVE20")
	require.NoError(t, err)
	require.True(t, res.Success, "apply should succeed: %s", res.Error)
	assert.EqualValues(t, 3700, res.DiscountCents)

	var promoModel repository.PromotionModel
	require.NoError(t, infra.DB.First(&promoModel, "id = ?", created.ID).Error)
	assert.Equal(t, 1, promoModel.RedemptionCount)

	var bookingModel repository.BookingModel
	require.NoError(t, infra.DB.First(&bookingModel, "id = ?", bookingID).Error)
	assert.EqualValues(t, 3700, bookingModel.DiscountCents)

	verdict, err = stack.Promotions.ValidatePromoCode(ctx, "SAVE20", "")
	require.NoError(t, err)
	assert.False(t, verdict.Valid)
	assert.Equal(t, "Promo code has reached max uses", verdict.Error)
}

// TestPaymentLinkWritesAuditTrail requests a checkout link and checks the
// booking's order reference and the sync log row.
func TestPaymentLinkWritesAuditTrail(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	bookingID := seedBookingRow(t, infra.DB, uuid.New(), 20000)

	res, err := stack.PaymentLinks.CreatePaymentLink(ctx, bookingID, 10000, application.LinkTypeDeposit)
	require.NoError(t, err)
	require.True(t, res.Success, "link request should succeed: %s", res.Error)
	assert.NotEmpty(t, res.URL)

	var bookingModel repository.BookingModel
	require.NoError(t, infra.DB.First(&bookingModel, "id = ?", bookingID).Error)
	assert.NotEmpty(t, bookingModel.ProcessorOrderID)

	var logCount int64
	require.NoError(t, infra.DB.Model(&repository.SyncLogModel{}).
		Where("kind = ?", "payment_link_created").Count(&logCount).Error)
	assert.EqualValues(t, 1, logCount)

	// a second link never overwrites the stored order reference
	firstOrder := bookingModel.ProcessorOrderID
	res, err = stack.PaymentLinks.CreatePaymentLink(ctx, bookingID, 10000, application.LinkTypeBalance)
	require.NoError(t, err)
	require.True(t, res.Success)

	require.NoError(t, infra.DB.First(&bookingModel, "id = ?", bookingID).Error)
	assert.Equal(t, firstOrder, bookingModel.ProcessorOrderID)
}

// TestRecordPaymentAndBalance records payments through the service and reads
// the derived balance.
func TestRecordPaymentAndBalance(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBillingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Cleanup()
	ctx := context.Background()

	clientID := uuid.New()
	bookingID := seedBookingRow(t, infra.DB, clientID, 20000)

	_, err := stack.Payments.RecordPayment(ctx, uuid.New(), application.RecordPaymentRequest{
		BookingID:   bookingID,
		ClientID:    clientID,
		AmountCents: 8000,
		Method:      "cash",
	})
	require.NoError(t, err)

	balance, err := stack.Payments.GetBookingBalance(ctx, bookingID)
	require.NoError(t, err)
	assert.EqualValues(t, 8000, balance.PaidCents)
	assert.EqualValues(t, 12000, balance.RemainingCents)
	assert.True(t, balance.PaymentEligible)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBillingEvents,
		events.PaymentRecorded, 15*time.Second)
	var recorded events.PaymentRecordedEvent
	require.NoError(t, ce.ParseData(&recorded))
	assert.Equal(t, bookingID, recorded.BookingID)
	assert.EqualValues(t, 8000, recorded.AmountCents)
}
