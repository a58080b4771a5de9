package order

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront-be/internal/address"
	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/payment"
	"storefront-be/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockClient struct {
	mock.Mock
}

func (m *MockClient) ValidateVoucher(ctx context.Context, req backend.ValidateVoucherRequest) (*backend.ValidateVoucherResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ValidateVoucherResponse), args.Error(1)
}

func (m *MockClient) CalculateShippingFee(ctx context.Context, req backend.ShippingFeeRequest) (*backend.ShippingFeeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ShippingFeeResponse), args.Error(1)
}

func (m *MockClient) GetOrderTracking(ctx context.Context, orderNumber string) (*backend.OrderTracking, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.OrderTracking), args.Error(1)
}

func (m *MockClient) CreateOrder(ctx context.Context, req backend.CreateOrderRequest, idempotencyKey string) (*backend.CreatedOrder, error) {
	args := m.Called(ctx, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.CreatedOrder), args.Error(1)
}

type MockWatcher struct {
	mock.Mock
}

func (m *MockWatcher) Watch(ctx context.Context, orderNumber string) (*payment.Watch, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Watch), args.Error(1)
}

// --- Helpers ---

func filledStore(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	s, err := cart.NewStore(ctx, "user:1", storage.NewMemorySlot())
	require.NoError(t, err)

	s.AddItem(ctx, cart.Line{ProductID: "p1", VariantID: "v-red", Name: "Áo", Price: 100000, MaxQuantity: 10}, 2)
	s.AddItem(ctx, cart.Line{ProductID: "p2", Name: "Mũ", Price: 50000, MaxQuantity: 10}, 1)
	s.ApplyVoucher(ctx, "SAVE50K", 50000)
	return s
}

func validInput(method string) CheckoutInput {
	return CheckoutInput{
		Address: address.ShippingAddress{
			Name:       "Nguyễn Văn A",
			Phone:      "+84912345678",
			Street:     "12 Lý Thường Kiệt",
			Province:   "Hồ Chí Minh",
			District:   "Quận 1",
			Ward:       "Phường Bến Nghé",
			DistrictID: 1442,
			WardCode:   "20109",
		},
		PaymentMethod: method,
		ShippingFee:   30000,
	}
}

// --- Tests ---

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("COD success clears cart", func(t *testing.T) {
		client := new(MockClient)
		watcher := new(MockWatcher)
		svc := NewService(client, watcher)
		store := filledStore(t)

		client.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r backend.CreateOrderRequest) bool {
			return len(r.Items) == 2 &&
				r.Items[0] == backend.OrderItem{ProductID: "p1", VariantID: "v-red", Quantity: 2, Price: 100000} &&
				r.ShippingPhone == "0912345678" &&
				r.ShippingDistrictID == 1442 &&
				r.ShippingFee == 30000 &&
				r.PaymentMethod == "COD" &&
				r.VoucherCode != nil && *r.VoucherCode == "SAVE50K"
		}), mock.AnythingOfType("string")).
			Return(&backend.CreatedOrder{ID: "77", OrderNumber: "DH77"}, nil)

		res, err := svc.PlaceOrder(ctx, store, validInput("cod"))

		require.NoError(t, err)
		assert.Equal(t, "DH77", res.OrderNumber)
		assert.Equal(t, backend.ID("77"), res.OrderID)
		assert.Equal(t, int64(250000), res.Subtotal)
		assert.Equal(t, int64(50000), res.Discount)
		assert.Equal(t, int64(230000), res.Total)
		assert.Nil(t, res.Payment)

		snap := store.Snapshot()
		assert.Empty(t, snap.Items)
		assert.Nil(t, snap.VoucherCode)
		watcher.AssertNotCalled(t, "Watch", mock.Anything, mock.Anything)
		client.AssertExpectations(t)
	})

	t.Run("Bank transfer starts payment watch", func(t *testing.T) {
		client := new(MockClient)
		watcher := new(MockWatcher)
		svc := NewService(client, watcher)

		client.On("CreateOrder", mock.Anything, mock.Anything, "idem-1").
			Return(&backend.CreatedOrder{ID: "9", OrderNumber: "DH9"}, nil)
		watcher.On("Watch", mock.Anything, "DH9").Return(payment.NewWatch("DH9", client), nil)

		in := validInput(payment.MethodBankTransfer)
		in.IdempotencyKey = "idem-1"
		res, err := svc.PlaceOrder(ctx, filledStore(t), in)

		require.NoError(t, err)
		require.NotNil(t, res.Payment)
		assert.Equal(t, "DH9", res.Payment.OrderNumber)
		watcher.AssertExpectations(t)
	})

	t.Run("Watch failure does not fail the order", func(t *testing.T) {
		client := new(MockClient)
		watcher := new(MockWatcher)
		svc := NewService(client, watcher)

		client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(&backend.CreatedOrder{ID: "9", OrderNumber: "DH9"}, nil)
		watcher.On("Watch", mock.Anything, "DH9").Return(nil, payment.ErrManagerClosed)

		res, err := svc.PlaceOrder(ctx, filledStore(t), validInput(payment.MethodBankTransfer))

		require.NoError(t, err)
		assert.Nil(t, res.Payment)
	})

	t.Run("Empty cart", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, nil)
		store, err := cart.NewStore(ctx, "guest:x", storage.NewMemorySlot())
		require.NoError(t, err)

		_, err = svc.PlaceOrder(ctx, store, validInput("COD"))

		assert.ErrorIs(t, err, ErrCartEmpty)
		client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid input", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, nil)

		in := validInput("PAYPAL")
		in.Address.Phone = "123"
		_, err := svc.PlaceOrder(ctx, filledStore(t), in)

		assert.ErrorIs(t, err, ErrInvalidCheckout)
		var verr *address.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "phone")
		assert.Contains(t, verr.Fields, "paymentMethod")
		client.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Negative shipping fee", func(t *testing.T) {
		in := validInput("COD")
		in.ShippingFee = -1
		_, err := NewService(new(MockClient), nil).PlaceOrder(ctx, filledStore(t), in)
		assert.ErrorIs(t, err, ErrInvalidCheckout)
	})

	t.Run("Backend failure keeps cart", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, nil)
		store := filledStore(t)

		client.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &backend.APIError{StatusCode: http.StatusConflict, Message: "Sản phẩm đã hết hàng"})

		_, err := svc.PlaceOrder(ctx, store, validInput("COD"))

		assert.ErrorIs(t, err, ErrFailedCreateOrder)
		apiErr, ok := backend.AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, "Sản phẩm đã hết hàng", apiErr.Message)
		assert.Len(t, store.Snapshot().Items, 2)
		assert.Equal(t, int64(200000), store.Total())
	})

	t.Run("Generated idempotency key", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, nil)

		client.On("CreateOrder", mock.Anything, mock.Anything, mock.MatchedBy(func(k string) bool { return len(k) == 36 })).
			Return(nil, errors.New("timeout"))

		_, err := svc.PlaceOrder(ctx, filledStore(t), validInput("COD"))
		assert.ErrorIs(t, err, ErrFailedCreateOrder)
		client.AssertExpectations(t)
	})
}
