package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/domain/booking"
	"github.com/hartley-studio/service-billing/internal/domain/giftcard"
	"github.com/hartley-studio/service-billing/internal/domain/money"
	"github.com/hartley-studio/service-billing/internal/domain/payment"
	"github.com/hartley-studio/service-billing/internal/domain/promotion"
	"github.com/hartley-studio/service-billing/internal/domain/synclog"
	"github.com/hartley-studio/service-billing/pkg/domain"
	"github.com/hartley-studio/service-billing/pkg/kafka"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// --- bookings ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking

	findErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return b, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b
	return nil
}

func (r *fakeBookingRepo) SetProcessorOrderID(_ context.Context, id uuid.UUID, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return false, domain.NewNotFoundError("booking", id.String())
	}
	if b.ProcessorOrderID() != "" {
		return false, nil
	}
	r.bookings[id] = booking.Reconstitute(
		b.ID(), b.ClientID(), b.ServiceID(), b.ServiceName(), b.ServiceCategory(),
		b.ScheduledAt(), b.Status(), b.TotalCents(), b.DiscountCents(), b.DepositCents(),
		orderID, b.GiftCardID(), b.PromotionID(), b.CreatedAt(), time.Now().UTC(),
	)
	return true, nil
}

// applyDiscount mirrors the transactional booking mutation the SQL
// repositories perform alongside gift card and promotion writes.
func (r *fakeBookingRepo) applyDiscount(id uuid.UUID, discount money.Cents, giftCardID, promotionID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.NewNotFoundError("booking", id.String())
	}
	if discount > b.TotalCents() {
		return domain.NewConflictError("discount exceeds booking total")
	}
	gc, promo := b.GiftCardID(), b.PromotionID()
	if giftCardID != nil {
		gc = giftCardID
	}
	if promotionID != nil {
		promo = promotionID
	}
	r.bookings[id] = booking.Reconstitute(
		b.ID(), b.ClientID(), b.ServiceID(), b.ServiceName(), b.ServiceCategory(),
		b.ScheduledAt(), b.Status(), b.TotalCents(), discount, b.DepositCents(),
		b.ProcessorOrderID(), gc, promo, b.CreatedAt(), time.Now().UTC(),
	)
	return nil
}

// --- payments ---

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment

	findErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*payment.Payment)}
}

func clonePayment(p *payment.Payment) *payment.Payment {
	return payment.Reconstitute(
		p.ID(), p.BookingID(), p.ClientID(), p.AmountCents(), p.TipCents(),
		p.Method(), p.Status(), p.RefundedCents(),
		p.ProcessorPaymentID(), p.ProcessorOrderID(), p.ReceiptURL(), p.Notes(),
		p.CreatedAt(), p.PaidAt(), p.RefundedAt(),
	)
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("payment", id.String())
	}
	return clonePayment(p), nil
}

func (r *fakePaymentRepo) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.payments {
		if p.BookingID() == bookingID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) ListAll(_ context.Context, _, _ int) ([]*payment.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.payments {
		out = append(out, clonePayment(p))
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) Save(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID()] = clonePayment(p)
	return nil
}

// ApplyRefund holds the lock across the guard check and the write, matching
// the single conditional UPDATE the SQL repository issues.
func (r *fakePaymentRepo) ApplyRefund(_ context.Context, id uuid.UUID, amount money.Cents, reason string, now time.Time) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("payment", id.String())
	}
	next := clonePayment(p)
	if err := next.ApplyRefund(amount, reason, now); err != nil {
		return nil, err
	}
	r.payments[id] = next
	return clonePayment(next), nil
}

// --- gift cards ---

type fakeGiftCardRepo struct {
	mu       sync.Mutex
	cards    map[uuid.UUID]*giftcard.GiftCard
	bookings *fakeBookingRepo

	findErr    error
	beforeSave func()
}

func newFakeGiftCardRepo(bookings *fakeBookingRepo) *fakeGiftCardRepo {
	return &fakeGiftCardRepo{cards: make(map[uuid.UUID]*giftcard.GiftCard), bookings: bookings}
}

func cloneGiftCard(g *giftcard.GiftCard) *giftcard.GiftCard {
	return giftcard.Reconstitute(
		g.ID(), g.Code(), g.PurchaserID(), g.RecipientName(),
		g.OriginalCents(), g.BalanceCents(), g.Status(), g.PurchasedAt(), g.ExpiresAt(),
	)
}

func (r *fakeGiftCardRepo) FindByID(_ context.Context, id uuid.UUID) (*giftcard.GiftCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	g, ok := r.cards[id]
	if !ok {
		return nil, domain.NewNotFoundError("gift card", id.String())
	}
	return cloneGiftCard(g), nil
}

func (r *fakeGiftCardRepo) FindByCode(_ context.Context, code string) (*giftcard.GiftCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.cards {
		if g.Code() == code {
			return cloneGiftCard(g), nil
		}
	}
	return nil, domain.NewNotFoundError("gift card", code)
}

// Save enforces code uniqueness the way the SQL repository's unique index
// does. beforeSave lets a test interleave a competing write.
func (r *fakeGiftCardRepo) Save(_ context.Context, g *giftcard.GiftCard) error {
	if r.beforeSave != nil {
		r.beforeSave()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cards {
		if existing.ID() != g.ID() && existing.Code() == g.Code() {
			return domain.NewConflictError(fmt.Sprintf("gift card code %s already exists", g.Code()))
		}
	}
	r.cards[g.ID()] = cloneGiftCard(g)
	return nil
}

// put inserts a card directly, bypassing the uniqueness check.
func (r *fakeGiftCardRepo) put(g *giftcard.GiftCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[g.ID()] = cloneGiftCard(g)
}

func (r *fakeGiftCardRepo) MaxCodeSuffix(_ context.Context, prefix string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, g := range r.cards {
		rest, ok := strings.CutPrefix(g.Code(), prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (r *fakeGiftCardRepo) RedeemAgainstBooking(_ context.Context, cardID, bookingID uuid.UUID, amount money.Cents, now time.Time) (*giftcard.GiftCard, error) {
	r.mu.Lock()
	g, ok := r.cards[cardID]
	if !ok {
		r.mu.Unlock()
		return nil, domain.NewNotFoundError("gift card", cardID.String())
	}
	next := cloneGiftCard(g)
	if err := next.Redeem(amount, now); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.cards[cardID] = next
	r.mu.Unlock()

	id := cardID
	if err := r.bookings.applyDiscount(bookingID, amount, &id, nil); err != nil {
		return nil, err
	}
	return cloneGiftCard(next), nil
}

// --- promotions ---

type fakePromotionRepo struct {
	mu       sync.Mutex
	promos   map[uuid.UUID]*promotion.Promotion
	bookings *fakeBookingRepo

	findErr error
}

func newFakePromotionRepo(bookings *fakeBookingRepo) *fakePromotionRepo {
	return &fakePromotionRepo{promos: make(map[uuid.UUID]*promotion.Promotion), bookings: bookings}
}

func clonePromotion(p *promotion.Promotion) *promotion.Promotion {
	return promotion.Reconstitute(
		p.ID(), p.Code(), p.DiscountType(), p.DiscountValue(), p.ServiceCategory(),
		p.MaxUses(), p.RedemptionCount(), p.Active(), p.StartsAt(), p.EndsAt(),
		p.CreatedAt(), p.UpdatedAt(),
	)
}

func (r *fakePromotionRepo) FindByID(_ context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, domain.NewNotFoundError("promotion", id.String())
	}
	return clonePromotion(p), nil
}

func (r *fakePromotionRepo) FindByCode(_ context.Context, code string) (*promotion.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.promos {
		if p.Code() == promotion.NormalizeCode(code) {
			return clonePromotion(p), nil
		}
	}
	return nil, domain.NewNotFoundError("promotion", code)
}

func (r *fakePromotionRepo) Save(_ context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.ID()] = clonePromotion(p)
	return nil
}

func (r *fakePromotionRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return domain.NewNotFoundError("promotion", id.String())
	}
	next := promotion.Reconstitute(
		p.ID(), p.Code(), p.DiscountType(), p.DiscountValue(), p.ServiceCategory(),
		p.MaxUses(), p.RedemptionCount(), active, p.StartsAt(), p.EndsAt(),
		p.CreatedAt(), time.Now().UTC(),
	)
	r.promos[id] = next
	return nil
}

func (r *fakePromotionRepo) ApplyToBooking(_ context.Context, promoID, bookingID uuid.UUID, discount money.Cents) error {
	r.mu.Lock()
	p, ok := r.promos[promoID]
	if !ok {
		r.mu.Unlock()
		return domain.NewNotFoundError("promotion", promoID.String())
	}
	r.promos[promoID] = promotion.Reconstitute(
		p.ID(), p.Code(), p.DiscountType(), p.DiscountValue(), p.ServiceCategory(),
		p.MaxUses(), p.RedemptionCount()+1, p.Active(), p.StartsAt(), p.EndsAt(),
		p.CreatedAt(), time.Now().UTC(),
	)
	r.mu.Unlock()

	id := promoID
	return r.bookings.applyDiscount(bookingID, discount, nil, &id)
}

// --- sync log ---

type fakeSyncLogRepo struct {
	mu      sync.Mutex
	entries []*synclog.Entry
}

func newFakeSyncLogRepo() *fakeSyncLogRepo { return &fakeSyncLogRepo{} }

func (r *fakeSyncLogRepo) Append(_ context.Context, e *synclog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeSyncLogRepo) ListRecent(_ context.Context, page, limit int) ([]*synclog.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*synclog.Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
	}
	return out, int64(len(out)), nil
}

func (r *fakeSyncLogRepo) byKind(kind synclog.Kind) []*synclog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*synclog.Entry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *fakeSyncLogRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// --- processor adapter ---

type refundCall struct {
	idempotencyKey string
	paymentID      string
	amount         money.Cents
	currency       string
	reason         string
}

// recordingProcessor records every outbound call and can be told to fail.
type recordingProcessor struct {
	mu          sync.Mutex
	refundCalls []refundCall
	linkCalls   int
	getCalls    int

	refundErr error
	linkErr   error
	getErr    error

	details adapter.PaymentDetails
	link    adapter.PaymentLink
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{
		details: adapter.PaymentDetails{ReceiptURL: "https://processor.test/receipts/r1", OrderID: "ord_123"},
		link:    adapter.PaymentLink{URL: "https://processor.test/checkout/l1", OrderID: "ord_456"},
	}
}

func (p *recordingProcessor) Name() string { return "recording" }

func (p *recordingProcessor) GetPayment(_ context.Context, _ string) (adapter.PaymentDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getCalls++
	if p.getErr != nil {
		return adapter.PaymentDetails{}, p.getErr
	}
	return p.details, nil
}

func (p *recordingProcessor) RefundPayment(_ context.Context, idempotencyKey, processorPaymentID string, amount money.Cents, currency, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refundCalls = append(p.refundCalls, refundCall{
		idempotencyKey: idempotencyKey,
		paymentID:      processorPaymentID,
		amount:         amount,
		currency:       currency,
		reason:         reason,
	})
	return p.refundErr
}

func (p *recordingProcessor) CreatePaymentLink(_ context.Context, _ uuid.UUID, _ string, _ money.Cents, _ string) (adapter.PaymentLink, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.linkCalls++
	if p.linkErr != nil {
		return adapter.PaymentLink{}, p.linkErr
	}
	return p.link, nil
}

func (p *recordingProcessor) refundCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refundCalls)
}

// --- publisher ---

type capturePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (c *capturePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) typesSeen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// --- seed helpers ---

func seedBooking(repo *fakeBookingRepo, clientID uuid.UUID, total money.Cents) *booking.Booking {
	b, err := booking.New(clientID, uuid.New(), "Full Day Session", "photography", time.Now().Add(72*time.Hour), total, total.Half())
	if err != nil {
		panic(fmt.Sprintf("seed booking: %v", err))
	}
	_ = repo.Save(context.Background(), b)
	return b
}

func seedPayment(repo *fakePaymentRepo, b *booking.Booking, amount money.Cents, method payment.Method, processorPaymentID string) *payment.Payment {
	p, err := payment.New(b.ID(), b.ClientID(), amount, 0, method, "")
	if err != nil {
		panic(fmt.Sprintf("seed payment: %v", err))
	}
	if processorPaymentID != "" {
		p.Enrich(processorPaymentID, "", "")
	}
	_ = repo.Save(context.Background(), p)
	return p
}
