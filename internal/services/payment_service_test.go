package services_test

import (
	"context"
	"errors"
	"testing"

	"luxe/internal/apperror"
	"luxe/internal/idgen"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/services"
	"luxe/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testKeySecret     = "rzp_secret"
	testWebhookSecret = "whsec"
)

// MockGateway is a mock implementation of payments.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) KeyID() string {
	return "rzp_test_key"
}

func (m *MockGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]string) (*payments.Order, error) {
	args := m.Called(amount, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Order), args.Error(1)
}

func (m *MockGateway) FetchPayment(paymentID string) (*payments.Payment, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Payment), args.Error(1)
}

type paymentFixture struct {
	store   repositories.Store
	orders  *services.OrderService
	svc     *services.PaymentService
	gateway *MockGateway
	user    *models.User
	product *models.Product
}

func newPaymentFixture(t *testing.T, withGateway bool) *paymentFixture {
	t.Helper()
	store := newTestStore(t)
	orders := services.NewOrderService(store, idgen.NewOrderNumbers("LUXE", nil), nil)
	f := &paymentFixture{
		store:   store,
		orders:  orders,
		user:    seedUser(t, store, "payer@example.com", models.RoleUser),
		product: seedProduct(t, store, "Silk Saree", "500", 5),
	}
	var gw payments.Gateway
	if withGateway {
		f.gateway = new(MockGateway)
		gw = f.gateway
	}
	f.svc = services.NewPaymentService(orders, store, gw, testKeySecret, testWebhookSecret)
	return f
}

// startOnline creates a gateway order for two units (subtotal 1000, total 1180).
func (f *paymentFixture) startOnline(t *testing.T, gatewayOrderID string) *services.PaymentOrder {
	t.Helper()
	f.gateway.On("CreateOrder", int64(118000), "INR", mock.AnythingOfType("string"), map[string]string{
		"userId":    f.user.ID,
		"itemCount": "1",
	}).Return(&payments.Order{ID: gatewayOrderID, Amount: 118000, Currency: "INR", Status: "created"}, nil).Once()

	po, err := f.svc.CreatePaymentOrder(context.Background(), f.user.ID, checkout(models.PaymentMethodUPI, line(f.product.ID, 2)))
	require.NoError(t, err)
	return po
}

func TestPaymentService_CashOnDelivery(t *testing.T) {
	f := newPaymentFixture(t, false)

	po, err := f.svc.CreatePaymentOrder(context.Background(), f.user.ID, checkout(models.PaymentMethodCOD, line(f.product.ID, 1)))
	require.NoError(t, err)
	require.NotNil(t, po.Order)
	assert.Equal(t, models.PaymentMethodCOD, po.PaymentMethod)
	assert.Equal(t, models.PaymentStatusPending, po.Order.PaymentStatus)
	assert.Equal(t, 4, stockOf(t, f.store, f.product.ID))
}

func TestPaymentService_OnlineWithoutGateway(t *testing.T) {
	f := newPaymentFixture(t, false)

	_, err := f.svc.CreatePaymentOrder(context.Background(), f.user.ID, checkout(models.PaymentMethodCard, line(f.product.ID, 1)))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
	assert.True(t, errors.Is(err, payments.ErrNotConfigured))
	assert.Equal(t, "Online payments are not configured. Please use Cash on Delivery or contact support.", apperror.MessageOf(err))

	_, err = f.svc.PaymentStatus(context.Background(), "pay_1")
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
}

func TestPaymentService_CreateAndVerify(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t, true)

	po := f.startOnline(t, "order_abc")
	assert.Nil(t, po.Order)
	assert.Equal(t, "order_abc", po.RazorpayOrderID)
	assert.Equal(t, int64(118000), po.Amount)
	assert.Equal(t, "rzp_test_key", po.KeyID)
	require.NotNil(t, po.Totals)
	assert.True(t, dec("1180").Equal(po.Totals.Total))
	assert.Equal(t, 5, stockOf(t, f.store, f.product.ID), "stock is only taken once the payment is verified")

	sig := payments.Sign([]byte("order_abc|pay_1"), testKeySecret)

	t.Run("bad signature", func(t *testing.T) {
		_, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_abc", "pay_1", "deadbeef")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		assert.Equal(t, "Payment verification failed - Invalid signature", apperror.MessageOf(err))
	})

	t.Run("someone else's checkout", func(t *testing.T) {
		_, err := f.svc.VerifyPayment(ctx, "another-user", "order_abc", "pay_1", sig)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("valid signature places a paid order", func(t *testing.T) {
		order, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_abc", "pay_1", sig)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
		assert.Equal(t, "order_abc", order.PaymentIntentID)
		assert.Equal(t, "pay_1", order.PaymentID)
		assert.True(t, dec("1180").Equal(order.Total))
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))

		again, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_abc", "pay_1", sig)
		require.NoError(t, err)
		assert.Equal(t, order.ID, again.ID)
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))

		intent, err := f.store.CheckoutIntents().GetByGatewayOrderID(ctx, "order_abc")
		require.NoError(t, err)
		assert.Equal(t, models.IntentStatusCompleted, intent.Status)
		assert.Equal(t, order.ID, intent.OrderID)
	})

	t.Run("unknown gateway order", func(t *testing.T) {
		s := payments.Sign([]byte("order_zzz|pay_9"), testKeySecret)
		_, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_zzz", "pay_9", s)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})

	f.gateway.AssertExpectations(t)
}

func webhookBody(event, paymentID, orderID string) []byte {
	return []byte(`{"event":"` + event + `","payload":{"payment":{"entity":{"id":"` + paymentID +
		`","order_id":"` + orderID + `","amount":118000,"currency":"INR","status":"captured"}}}}`)
}

func TestPaymentService_Webhook(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a bad signature", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		body := webhookBody(payments.EventPaymentCaptured, "pay_1", "order_1")
		err := f.svc.HandleWebhook(ctx, body, "nope")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		assert.Equal(t, "Invalid signature", apperror.MessageOf(err))
	})

	t.Run("captured without verify places the order", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		f.startOnline(t, "order_hook")

		body := webhookBody(payments.EventPaymentCaptured, "pay_hook", "order_hook")
		require.NoError(t, f.svc.HandleWebhook(ctx, body, payments.Sign(body, testWebhookSecret)))

		order, err := f.store.Orders().GetByPaymentIntent(ctx, "order_hook")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, "pay_hook", order.PaymentID)

		// Delivered twice by the gateway; nothing changes.
		require.NoError(t, f.svc.HandleWebhook(ctx, body, payments.Sign(body, testWebhookSecret)))
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))
	})

	t.Run("failed attempt does not block a retry", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		f.startOnline(t, "order_retry")

		failed := webhookBody(payments.EventPaymentFailed, "pay_attempt1", "order_retry")
		require.NoError(t, f.svc.HandleWebhook(ctx, failed, payments.Sign(failed, testWebhookSecret)))

		intent, err := f.store.CheckoutIntents().GetByGatewayOrderID(ctx, "order_retry")
		require.NoError(t, err)
		assert.Equal(t, models.IntentStatusCreated, intent.Status)
		assert.Equal(t, 5, stockOf(t, f.store, f.product.ID))

		captured := webhookBody(payments.EventPaymentCaptured, "pay_attempt2", "order_retry")
		require.NoError(t, f.svc.HandleWebhook(ctx, captured, payments.Sign(captured, testWebhookSecret)))

		order, err := f.store.Orders().GetByPaymentIntent(ctx, "order_retry")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, "pay_attempt2", order.PaymentID)
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))

		sig := payments.Sign([]byte("order_retry|pay_attempt2"), testKeySecret)
		verified, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_retry", "pay_attempt2", sig)
		require.NoError(t, err)
		assert.Equal(t, order.ID, verified.ID)

		// A late failure for the first attempt leaves the paid order alone.
		require.NoError(t, f.svc.HandleWebhook(ctx, failed, payments.Sign(failed, testWebhookSecret)))
		order, err = f.store.Orders().GetByPaymentIntent(ctx, "order_retry")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, models.OrderStatusConfirmed, order.OrderStatus)
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))
	})

	t.Run("verify after a failed attempt places the order", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		f.startOnline(t, "order_again")

		failed := webhookBody(payments.EventPaymentFailed, "pay_declined", "order_again")
		require.NoError(t, f.svc.HandleWebhook(ctx, failed, payments.Sign(failed, testWebhookSecret)))

		sig := payments.Sign([]byte("order_again|pay_ok"), testKeySecret)
		order, err := f.svc.VerifyPayment(ctx, f.user.ID, "order_again", "pay_ok", sig)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, "pay_ok", order.PaymentID)
		assert.Equal(t, 3, stockOf(t, f.store, f.product.ID))
	})

	t.Run("failure of the order's own payment cancels it", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		order := &models.Order{
			OrderNumber:     "LUXE-PENDING-0001",
			UserID:          f.user.ID,
			ShippingAddress: testAddress(),
			PaymentMethod:   models.PaymentMethodCard,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			Items: []models.OrderItem{{
				ProductID: f.product.ID,
				Name:      f.product.Name,
				Price:     f.product.Price,
				Quantity:  2,
			}},
			PaymentIntentID: "order_pending",
			PaymentID:       "pay_a",
		}
		require.NoError(t, f.store.Orders().Create(ctx, order))

		other := webhookBody(payments.EventPaymentFailed, "pay_b", "order_pending")
		require.NoError(t, f.svc.HandleWebhook(ctx, other, payments.Sign(other, testWebhookSecret)))
		got, err := f.store.Orders().GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, got.PaymentStatus)
		assert.Equal(t, models.OrderStatusPending, got.OrderStatus)

		own := webhookBody(payments.EventPaymentFailed, "pay_a", "order_pending")
		require.NoError(t, f.svc.HandleWebhook(ctx, own, payments.Sign(own, testWebhookSecret)))
		got, err = f.store.Orders().GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
		assert.Equal(t, models.OrderStatusCancelled, got.OrderStatus)
		assert.Equal(t, 7, stockOf(t, f.store, f.product.ID))
	})

	t.Run("unknown orders and events are acknowledged", func(t *testing.T) {
		f := newPaymentFixture(t, true)
		for _, body := range [][]byte{
			webhookBody(payments.EventPaymentCaptured, "pay_x", "order_unknown"),
			webhookBody(payments.EventPaymentFailed, "pay_y", "order_unknown"),
			[]byte(`{"event":"refund.created","payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":"pay_1","amount":100}}}}`),
			[]byte(`{"event":"order.paid","payload":{}}`),
		} {
			assert.NoError(t, f.svc.HandleWebhook(ctx, body, payments.Sign(body, testWebhookSecret)))
		}
	})
}

func TestPaymentService_PaymentStatus(t *testing.T) {
	f := newPaymentFixture(t, true)
	f.gateway.On("FetchPayment", "pay_42").Return(&payments.Payment{
		ID: "pay_42", Status: "captured", Amount: 68900, Currency: "INR", Method: "upi", CreatedAt: 1700000000,
	}, nil).Once()

	info, err := f.svc.PaymentStatus(context.Background(), "pay_42")
	require.NoError(t, err)
	assert.Equal(t, "captured", info.Status)
	assert.True(t, dec("689").Equal(info.Amount))
	assert.Equal(t, int64(1700000000), info.CreatedAt.Unix())
	f.gateway.AssertExpectations(t)
}

func TestPaymentService_CreateGatewayOrder(t *testing.T) {
	f := newPaymentFixture(t, true)

	_, err := f.svc.CreateGatewayOrder(context.Background(), dec("0"))
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	f.gateway.On("CreateOrder", int64(49950), "INR", mock.AnythingOfType("string"), map[string]string(nil)).
		Return(&payments.Order{ID: "order_raw", Amount: 49950, Currency: "INR"}, nil).Once()
	order, err := f.svc.CreateGatewayOrder(context.Background(), dec("499.5"))
	require.NoError(t, err)
	assert.Equal(t, "order_raw", order.ID)
	f.gateway.AssertExpectations(t)
}
