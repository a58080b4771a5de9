package order

import (
	"context"
	"fmt"
	"strings"

	"storefront-be/internal/address"
	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	PlaceOrder(ctx context.Context, store *cart.Store, input CheckoutInput) (*Placement, error)
}

// Watcher starts the QR payment watch of a new order. *payment.Manager
// satisfies it.
type Watcher interface {
	Watch(ctx context.Context, orderNumber string) (*payment.Watch, error)
}

type service struct {
	client  backend.Client
	watcher Watcher
}

func NewService(client backend.Client, watcher Watcher) Service {
	return &service{
		client:  client,
		watcher: watcher,
	}
}

func (s *service) PlaceOrder(ctx context.Context, store *cart.Store, input CheckoutInput) (*Placement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Order.PlaceOrder"),
	)

	input.Address = input.Address.Normalize()
	input.PaymentMethod = strings.ToUpper(strings.TrimSpace(input.PaymentMethod))
	input.Note = strings.TrimSpace(input.Note)
	if err := address.ValidateStruct(input); err != nil {
		log.Info("checkout input rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckout, err)
	}

	snap := store.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrCartEmpty
	}

	req := backend.CreateOrderRequest{
		Items:          make([]backend.OrderItem, 0, len(snap.Items)),
		ShippingFee:    input.ShippingFee,
		Note:           input.Note,
		PaymentMethod:  input.PaymentMethod,
		VoucherCode:    snap.VoucherCode,
		PointsToRedeem: input.PointsToRedeem,
	}
	for _, l := range snap.Items {
		req.Items = append(req.Items, backend.OrderItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	input.Address.ApplyTo(&req)

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	created, err := s.client.CreateOrder(ctx, req, key)
	if err != nil {
		log.Error("failed to create order",
			zap.Int("items", len(req.Items)),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrFailedCreateOrder, err)
	}

	store.ClearCart(ctx)

	subtotal := cart.Subtotal(snap)
	placement := &Placement{
		OrderID:       created.ID,
		OrderNumber:   created.OrderNumber,
		PaymentMethod: input.PaymentMethod,
		Subtotal:      subtotal,
		Discount:      snap.VoucherDiscount,
		ShippingFee:   input.ShippingFee,
		Total:         cart.Total(snap) + input.ShippingFee,
		VoucherCode:   snap.VoucherCode,
	}

	log = log.With(zap.String("order_number", created.OrderNumber))
	log.Info("order created", zap.Int64("total", placement.Total))

	if input.PaymentMethod == payment.MethodBankTransfer && s.watcher != nil {
		w, err := s.watcher.Watch(ctx, created.OrderNumber)
		if err != nil {
			// the order exists; the shopper can still open the payment page later
			log.Warn("failed to start payment watch", zap.Error(err))
		} else {
			st := w.Status()
			placement.Payment = &st
		}
	}

	return placement, nil
}
