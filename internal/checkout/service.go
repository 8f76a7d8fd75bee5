package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/paystack"
	"backend/internal/store"
)

// ErrEmptyCart means the user tried to check out with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

type UserStore interface {
	GetByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

type CartStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, productID primitive.ObjectID) (*models.Product, error)
}

// InventoryLedger is the only mutation path for stock counters.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID primitive.ObjectID, qty int) error
	Release(ctx context.Context, productID primitive.ObjectID, qty int) error
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order, payment *models.Payment) error
	SetPaymentReference(ctx context.Context, orderID primitive.ObjectID, reference string) error
}

type PaymentStore interface {
	SetReference(ctx context.Context, orderID primitive.ObjectID, reference string) error
}

type Gateway interface {
	InitializeTransaction(ctx context.Context, email string, amountKobo int64, reference string) (*paystack.InitResult, error)
}

// Service turns a mutable cart into an immutable PENDING order with stock
// reserved, then opens a payment session with the gateway.
type Service struct {
	users    UserStore
	carts    CartStore
	products ProductStore
	ledger   InventoryLedger
	orders   OrderStore
	payments PaymentStore
	gateway  Gateway
}

func NewService(users UserStore, carts CartStore, products ProductStore, ledger InventoryLedger, orders OrderStore, payments PaymentStore, gateway Gateway) *Service {
	return &Service{
		users:    users,
		carts:    carts,
		products: products,
		ledger:   ledger,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
	}
}

// InitializePayment creates an order from the user's cart and returns the
// gateway authorization URL the buyer should be redirected to.
//
// Reservation is all-or-nothing: if any cart line cannot be reserved, every
// reservation already made in this call is rolled back and the error
// surfaces with no order created. The cart itself is left untouched; it is
// only cleared once the success webhook arrives, so a failed or abandoned
// payment keeps the cart intact for retry.
func (s *Service) InitializePayment(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return "", ErrEmptyCart
	}

	order, err := s.assembleOrder(ctx, cart)
	if err != nil {
		return "", err
	}
	order.UserID = userID

	payment := &models.Payment{
		Amount:       order.TotalAmount,
		AmountInKobo: amountInKobo(order.TotalAmount),
		Currency:     "NGN",
		Status:       models.PaymentStatusPending,
	}

	if err := s.orders.Create(ctx, order, payment); err != nil {
		s.releaseAll(ctx, order.Items)
		return "", err
	}

	// The order's own ID is the correlation key the webhook presents back.
	reference := order.ID.Hex()

	result, err := s.gateway.InitializeTransaction(ctx, user.Email, payment.AmountInKobo, reference)
	if err != nil {
		// Order stays PENDING with stock reserved; the caller may retry
		// or a cancellation path releases it later.
		log.Printf("[CHECKOUT] [ERROR] gateway init failed for order %s: %v", order.ID.Hex(), err)
		return "", err
	}

	if err := s.orders.SetPaymentReference(ctx, order.ID, result.Reference); err != nil {
		return "", fmt.Errorf("link order to gateway reference: %w", err)
	}
	if err := s.payments.SetReference(ctx, order.ID, result.Reference); err != nil {
		return "", fmt.Errorf("link payment to gateway reference: %w", err)
	}

	log.Printf("[CHECKOUT] [INFO] order %s initialized with reference %s", order.ID.Hex(), result.Reference)
	return result.AuthorizationURL, nil
}

// assembleOrder snapshots each cart line and reserves its stock. Prices and
// names are copied at this moment so later product edits never change the
// placed order.
func (s *Service) assembleOrder(ctx context.Context, cart *models.Cart) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	total := decimal.Zero

	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			s.releaseAll(ctx, items)
			return nil, fmt.Errorf("load product %s: %w", line.ProductID.Hex(), err)
		}

		if err := s.ledger.Reserve(ctx, product.ID, line.Quantity); err != nil {
			s.releaseAll(ctx, items)
			if errors.Is(err, store.ErrInsufficientStock) {
				return nil, store.StockError{
					ProductID: product.ID,
					Requested: line.Quantity,
					Available: product.AvailableStock(),
				}
			}
			return nil, err
		}

		unitPrice := decimal.NewFromFloat(product.Price)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)

		items = append(items, models.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductSku:      product.Sku,
			ProductImageURL: product.ImageURL,
			UnitPrice:       product.Price,
			Quantity:        line.Quantity,
			LineTotal:       lineTotal.InexactFloat64(),
		})
	}

	return &models.Order{
		Items:       items,
		TotalAmount: total.InexactFloat64(),
		OrderStatus: models.OrderStatusPending,
	}, nil
}

// releaseAll rolls back the reservations made so far in this call. Release
// failures are logged, never fatal: the ledger treats over-release as a
// no-op and a stale reservation is recoverable by the cancellation path.
func (s *Service) releaseAll(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[CHECKOUT] [ERROR] rollback release failed for product %s: %v", item.ProductID.Hex(), err)
		}
	}
}

// amountInKobo converts a major-unit amount to the gateway's smallest
// currency unit: multiply by 100 and truncate.
func amountInKobo(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).IntPart()
}
