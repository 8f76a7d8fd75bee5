package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/paystack"
	"backend/internal/store"
)

// ErrInvalidPayload means a signature-verified body could not be parsed.
// Nothing was processed; the gateway should not retry it.
var ErrInvalidPayload = errors.New("invalid webhook payload")

type OrderStore interface {
	GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderID primitive.ObjectID, from, to string) (bool, error)
}

type PaymentStore interface {
	MarkCompleted(ctx context.Context, orderID primitive.ObjectID, paidAt time.Time, meta store.CardMeta) error
	MarkFailed(ctx context.Context, orderID primitive.ObjectID, status, reason string) error
}

type InventoryLedger interface {
	Commit(ctx context.Context, productID primitive.ObjectID, qty int) error
	Release(ctx context.Context, productID primitive.ObjectID, qty int) error
}

type CartStore interface {
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// Reconciler applies verified gateway webhooks to orders and payments. It
// is safe against duplicate and concurrent deliveries: the PENDING->terminal
// transition is a conditional update and only the winning delivery runs the
// inventory side effects.
type Reconciler struct {
	secretKey string
	orders    OrderStore
	payments  PaymentStore
	ledger    InventoryLedger
	carts     CartStore
}

func NewReconciler(secretKey string, orders OrderStore, payments PaymentStore, ledger InventoryLedger, carts CartStore) *Reconciler {
	return &Reconciler{
		secretKey: secretKey,
		orders:    orders,
		payments:  payments,
		ledger:    ledger,
		carts:     carts,
	}
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		PaidAt          string `json:"paid_at"`
		GatewayResponse string `json:"gateway_response"`
		Channel         string `json:"channel"`
		Authorization   struct {
			Last4    string `json:"last4"`
			CardType string `json:"card_type"`
		} `json:"authorization"`
	} `json:"data"`
}

// HandleWebhook verifies and applies one webhook delivery. The signature is
// checked over the exact raw bytes before anything is parsed; a forged
// payload never reaches the state machine. Unknown event types are
// acknowledged and ignored so new gateway events do not break the endpoint.
func (r *Reconciler) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	if err := paystack.VerifySignature(r.secretKey, body, signature); err != nil {
		log.Println("[WEBHOOK] [ERROR] signature verification failed, payload discarded")
		return err
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch payload.Event {
	case "charge.success":
		return r.applySuccess(ctx, payload)
	case "charge.failed":
		return r.applyFailure(ctx, payload)
	default:
		log.Printf("[WEBHOOK] [INFO] ignoring event %q for reference %q", payload.Event, payload.Data.Reference)
		return nil
	}
}

func (r *Reconciler) applySuccess(ctx context.Context, payload webhookPayload) error {
	order, err := r.orders.GetByPaymentReference(ctx, payload.Data.Reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[WEBHOOK] [ERROR] no order for reference %q, rejecting delivery", payload.Data.Reference)
		}
		return err
	}

	if order.OrderStatus == models.OrderStatusConfirmed {
		log.Printf("[WEBHOOK] [INFO] duplicate success delivery for order %s, no-op", order.ID.Hex())
		return nil
	}

	won, err := r.orders.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusConfirmed)
	if err != nil {
		return err
	}
	if !won {
		// A concurrent delivery already moved the order out of PENDING;
		// the side effects below must not run twice.
		log.Printf("[WEBHOOK] [INFO] order %s already transitioned, no-op", order.ID.Hex())
		return nil
	}

	for _, item := range order.Items {
		if err := r.ledger.Commit(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[WEBHOOK] [ERROR] stock commit failed for product %s on order %s: %v",
				item.ProductID.Hex(), order.ID.Hex(), err)
		}
	}

	meta := store.CardMeta{
		Channel:      payload.Data.Channel,
		CardType:     payload.Data.Authorization.CardType,
		CardLastFour: payload.Data.Authorization.Last4,
	}
	if err := r.payments.MarkCompleted(ctx, order.ID, paidAtOrNow(payload.Data.PaidAt), meta); err != nil {
		log.Printf("[WEBHOOK] [ERROR] payment update failed for order %s: %v", order.ID.Hex(), err)
	}

	if err := r.carts.Clear(ctx, order.UserID); err != nil {
		log.Printf("[WEBHOOK] [ERROR] cart clear failed for user %s: %v", order.UserID.Hex(), err)
	}

	log.Printf("[WEBHOOK] [INFO] order %s confirmed", order.ID.Hex())
	return nil
}

func (r *Reconciler) applyFailure(ctx context.Context, payload webhookPayload) error {
	order, err := r.orders.GetByPaymentReference(ctx, payload.Data.Reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[WEBHOOK] [ERROR] no order for reference %q, rejecting delivery", payload.Data.Reference)
		}
		return err
	}

	won, err := r.orders.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		return err
	}
	if !won {
		log.Printf("[WEBHOOK] [INFO] duplicate failure delivery for order %s, no-op", order.ID.Hex())
		return nil
	}

	for _, item := range order.Items {
		if err := r.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[WEBHOOK] [ERROR] stock release failed for product %s on order %s: %v",
				item.ProductID.Hex(), order.ID.Hex(), err)
		}
	}

	status := models.PaymentStatusFailed
	if payload.Data.Status == "abandoned" {
		status = models.PaymentStatusAbandoned
	}
	if err := r.payments.MarkFailed(ctx, order.ID, status, payload.Data.GatewayResponse); err != nil {
		log.Printf("[WEBHOOK] [ERROR] payment update failed for order %s: %v", order.ID.Hex(), err)
	}

	log.Printf("[WEBHOOK] [INFO] order %s failed, reservations released", order.ID.Hex())
	return nil
}

func paidAtOrNow(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
