package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/paystack"
	"backend/internal/store"
)

const testSecret = "sk_test_webhook_secret"

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeOrderStore struct {
	order       *models.Order
	transitions int
}

func (f *fakeOrderStore) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	if f.order == nil || f.order.PaymentReference != reference {
		return nil, store.ErrNotFound
	}
	// Return a copy so the reconciler sees the status at load time, the
	// way a fresh database read would.
	copied := *f.order
	return &copied, nil
}

func (f *fakeOrderStore) TransitionStatus(ctx context.Context, orderID primitive.ObjectID, from, to string) (bool, error) {
	if f.order == nil || f.order.ID != orderID || f.order.OrderStatus != from {
		return false, nil
	}
	f.order.OrderStatus = to
	f.transitions++
	return true, nil
}

type fakePaymentStore struct {
	completed int
	failed    int
	status    string
	reason    string
	meta      store.CardMeta
	paidAt    time.Time
}

func (f *fakePaymentStore) MarkCompleted(ctx context.Context, orderID primitive.ObjectID, paidAt time.Time, meta store.CardMeta) error {
	f.completed++
	f.paidAt = paidAt
	f.meta = meta
	return nil
}

func (f *fakePaymentStore) MarkFailed(ctx context.Context, orderID primitive.ObjectID, status, reason string) error {
	f.failed++
	f.status = status
	f.reason = reason
	return nil
}

type fakeLedger struct {
	commits  map[primitive.ObjectID]int
	releases map[primitive.ObjectID]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		commits:  make(map[primitive.ObjectID]int),
		releases: make(map[primitive.ObjectID]int),
	}
}

func (f *fakeLedger) Commit(ctx context.Context, productID primitive.ObjectID, qty int) error {
	f.commits[productID] += qty
	return nil
}

func (f *fakeLedger) Release(ctx context.Context, productID primitive.ObjectID, qty int) error {
	f.releases[productID] += qty
	return nil
}

type fakeCartStore struct {
	cleared int
}

func (f *fakeCartStore) Clear(ctx context.Context, userID primitive.ObjectID) error {
	f.cleared++
	return nil
}

type webhookFixture struct {
	orders     *fakeOrderStore
	payments   *fakePaymentStore
	ledger     *fakeLedger
	carts      *fakeCartStore
	reconciler *Reconciler
	productA   primitive.ObjectID
	productB   primitive.ObjectID
}

func newWebhookFixture() *webhookFixture {
	f := &webhookFixture{
		orders:   &fakeOrderStore{},
		payments: &fakePaymentStore{},
		ledger:   newFakeLedger(),
		carts:    &fakeCartStore{},
		productA: primitive.NewObjectID(),
		productB: primitive.NewObjectID(),
	}
	f.orders.order = &models.Order{
		ID:               primitive.NewObjectID(),
		UserID:           primitive.NewObjectID(),
		OrderStatus:      models.OrderStatusPending,
		PaymentReference: "ref-123",
		Items: []models.OrderItem{
			{ProductID: f.productA, Quantity: 2},
			{ProductID: f.productB, Quantity: 1},
		},
	}
	f.reconciler = NewReconciler(testSecret, f.orders, f.payments, f.ledger, f.carts)
	return f
}

const successBody = `{"event":"charge.success","data":{"status":"success","reference":"ref-123","amount":4523,"paid_at":"2024-05-01T12:30:00Z","channel":"card","authorization":{"last4":"4081","card_type":"visa"}}}`

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture()

	err := f.reconciler.HandleWebhook(context.Background(), "deadbeef", []byte(successBody))
	if !errors.Is(err, paystack.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	if f.orders.transitions != 0 || len(f.ledger.commits) != 0 || f.payments.completed != 0 {
		t.Fatal("a forged payload must cause zero state change")
	}
	if f.orders.order.OrderStatus != models.OrderStatusPending {
		t.Fatalf("order status changed to %s", f.orders.order.OrderStatus)
	}
}

func TestHandleWebhookRejectsMissingSignature(t *testing.T) {
	f := newWebhookFixture()

	err := f.reconciler.HandleWebhook(context.Background(), "", []byte(successBody))
	if !errors.Is(err, paystack.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestHandleWebhookRejectsTamperedBody(t *testing.T) {
	f := newWebhookFixture()
	tampered := []byte(`{"event":"charge.success","data":{"status":"success","reference":"ref-123","amount":1}}`)

	err := f.reconciler.HandleWebhook(context.Background(), sign([]byte(successBody)), tampered)
	if !errors.Is(err, paystack.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestHandleWebhookInvalidPayload(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{not json`)

	err := f.reconciler.HandleWebhook(context.Background(), sign(body), body)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestHandleWebhookIgnoresUnknownEvent(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"event":"transfer.success","data":{"reference":"ref-123"}}`)

	if err := f.reconciler.HandleWebhook(context.Background(), sign(body), body); err != nil {
		t.Fatalf("unknown events must be acknowledged, got %v", err)
	}
	if f.orders.transitions != 0 {
		t.Fatal("unknown events must not touch order state")
	}
}

func TestHandleWebhookSuccess(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(successBody)

	if err := f.reconciler.HandleWebhook(context.Background(), sign(body), body); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}

	if f.orders.order.OrderStatus != models.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", f.orders.order.OrderStatus)
	}
	if f.ledger.commits[f.productA] != 2 || f.ledger.commits[f.productB] != 1 {
		t.Fatalf("unexpected stock commits: %v", f.ledger.commits)
	}
	if f.payments.completed != 1 {
		t.Fatalf("expected one payment completion, got %d", f.payments.completed)
	}
	if f.payments.meta.Channel != "card" || f.payments.meta.CardLastFour != "4081" {
		t.Fatalf("card metadata not recorded: %+v", f.payments.meta)
	}
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	if !f.payments.paidAt.Equal(want) {
		t.Fatalf("expected paid_at %v, got %v", want, f.payments.paidAt)
	}
	if f.carts.cleared != 1 {
		t.Fatal("cart must be cleared on payment success")
	}
}

func TestHandleWebhookSuccessIsIdempotent(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(successBody)
	signature := sign(body)

	if err := f.reconciler.HandleWebhook(context.Background(), signature, body); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	if err := f.reconciler.HandleWebhook(context.Background(), signature, body); err != nil {
		t.Fatalf("duplicate delivery must succeed as a no-op, got %v", err)
	}

	if f.orders.transitions != 1 {
		t.Fatalf("expected exactly one CONFIRMED transition, got %d", f.orders.transitions)
	}
	if f.ledger.commits[f.productA] != 2 || f.ledger.commits[f.productB] != 1 {
		t.Fatalf("stock must be committed exactly once per line: %v", f.ledger.commits)
	}
	if f.payments.completed != 1 {
		t.Fatalf("payment must be completed exactly once, got %d", f.payments.completed)
	}
}

func TestHandleWebhookSuccessLosesRace(t *testing.T) {
	f := newWebhookFixture()
	// Another delivery moved the order out of PENDING between this
	// delivery's read and its transition attempt.
	f.orders.order.OrderStatus = models.OrderStatusProcessing
	body := []byte(successBody)

	if err := f.reconciler.HandleWebhook(context.Background(), sign(body), body); err != nil {
		t.Fatalf("losing the transition race must be a no-op, got %v", err)
	}
	if len(f.ledger.commits) != 0 {
		t.Fatal("the losing delivery must not commit stock")
	}
}

func TestHandleWebhookUnknownReference(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"event":"charge.success","data":{"status":"success","reference":"ref-unknown","amount":100}}`)

	err := f.reconciler.HandleWebhook(context.Background(), sign(body), body)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown reference, got %v", err)
	}
}

func TestHandleWebhookFailureReleasesStock(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"event":"charge.failed","data":{"status":"failed","reference":"ref-123","amount":4523,"gateway_response":"Declined"}}`)

	if err := f.reconciler.HandleWebhook(context.Background(), sign(body), body); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}

	if f.orders.order.OrderStatus != models.OrderStatusFailed {
		t.Fatalf("expected FAILED, got %s", f.orders.order.OrderStatus)
	}
	if f.ledger.releases[f.productA] != 2 || f.ledger.releases[f.productB] != 1 {
		t.Fatalf("reserved units must return to availability: %v", f.ledger.releases)
	}
	if f.payments.status != models.PaymentStatusFailed || f.payments.reason != "Declined" {
		t.Fatalf("payment record not updated: status=%s reason=%s", f.payments.status, f.payments.reason)
	}
	if f.carts.cleared != 0 {
		t.Fatal("cart must stay intact on failure so the user can retry")
	}
}

func TestHandleWebhookAbandonedMapsPaymentStatus(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"event":"charge.failed","data":{"status":"abandoned","reference":"ref-123","amount":4523}}`)

	if err := f.reconciler.HandleWebhook(context.Background(), sign(body), body); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if f.payments.status != models.PaymentStatusAbandoned {
		t.Fatalf("expected ABANDONED payment status, got %s", f.payments.status)
	}
}

func TestHandleWebhookFailureIsIdempotent(t *testing.T) {
	f := newWebhookFixture()
	body := []byte(`{"event":"charge.failed","data":{"status":"failed","reference":"ref-123","amount":4523}}`)
	signature := sign(body)

	if err := f.reconciler.HandleWebhook(context.Background(), signature, body); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	if err := f.reconciler.HandleWebhook(context.Background(), signature, body); err != nil {
		t.Fatalf("duplicate delivery must succeed as a no-op, got %v", err)
	}

	if f.ledger.releases[f.productA] != 2 {
		t.Fatalf("stock must be released exactly once per line: %v", f.ledger.releases)
	}
	if f.payments.failed != 1 {
		t.Fatalf("payment must be failed exactly once, got %d", f.payments.failed)
	}
}
