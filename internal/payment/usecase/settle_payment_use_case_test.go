package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kms/internal/domain"
	"kms/internal/dto"
	apperrors "kms/internal/errors"
	"kms/internal/infrastructure/sqlite"
	orderrepo "kms/internal/order/repository"
	"kms/internal/order/service"
	paymentrepo "kms/internal/payment/repository"
	"kms/internal/testutil"
)

type settleFixture struct {
	uc       *SettlePaymentUseCase
	orders   *orderrepo.SQLOrderRepository
	payments *paymentrepo.SQLPaymentRepository
}

// newSettleFixture stores a CREATED order o1 of student u1 with a PENDING payment pay-1.
func newSettleFixture(t *testing.T) *settleFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.SetupSQLiteDB(t)

	orders := orderrepo.NewSQLOrderRepository(db)
	payments := paymentrepo.NewSQLPaymentRepository(db, sqlite.IsUniqueViolation)
	now := func() time.Time { return fixedNow }
	machine := service.NewStateMachine(orders, now, func() (string, error) { return "K7P2QX", nil }, zap.NewNop())

	order := createdOrder()
	order.Items = []domain.OrderItem{{MenuItemID: "m1", Name: "Masala Dosa", Price: 50, Quantity: 2}, {MenuItemID: "m2", Name: "Filter Coffee", Price: 30, Quantity: 1}}
	order.CreatedAt, order.UpdatedAt = fixedNow, fixedNow
	require.NoError(t, orders.Insert(ctx, order))
	require.NoError(t, payments.Insert(ctx, &domain.Payment{
		ID: "pay-1", OrderID: "o1", UserID: "u1", Provider: domain.PaymentProviderMock,
		Amount: 130, Status: domain.PaymentStatusPending, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}))

	return &settleFixture{
		uc:       NewSettlePaymentUseCase(orders, payments, machine, now, zap.NewNop()),
		orders:   orders,
		payments: payments,
	}
}

func ptr[T any](v T) *T { return &v }

func TestConfirm_SuccessPaysOrderAndIssuesCode(t *testing.T) {
	f := newSettleFixture(t)

	payment, order, err := f.uc.Confirm(context.Background(), student, "pay-1", dto.ConfirmPaymentRequest{TransactionID: "T-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, "T-1", payment.TransactionID)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, "K7P2QX", order.PickupCode)
	assert.False(t, order.PickupCodeUsed)
}

func TestConfirm_FailureFailsOrder(t *testing.T) {
	f := newSettleFixture(t)

	payment, order, err := f.uc.Confirm(context.Background(), student, "pay-1", dto.ConfirmPaymentRequest{Success: ptr(false)})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "TXN"+strconv.FormatInt(fixedNow.UnixMilli(), 10), payment.TransactionID)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
	assert.Empty(t, order.PickupCode)
}

func TestConfirm_SecondConfirmRejected(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.Confirm(ctx, student, "pay-1", dto.ConfirmPaymentRequest{})
	require.NoError(t, err)

	_, _, err = f.uc.Confirm(ctx, student, "pay-1", dto.ConfirmPaymentRequest{})
	ise, ok := apperrors.IsInvalidStateError(err)
	require.True(t, ok)
	assert.Equal(t, "payment is not in pending state", ise.Message)
}

func TestConfirm_OrderNoLongerCreated(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	_, err := f.orders.UpdateStatus(ctx, "o1", domain.OrderStatusCreated, domain.StatusChange{
		To: domain.OrderStatusCancelled, CancelledBy: domain.CancelledByStudent, At: fixedNow,
	})
	require.NoError(t, err)

	_, _, err = f.uc.Confirm(ctx, student, "pay-1", dto.ConfirmPaymentRequest{})
	_, ok := apperrors.IsInvalidTransitionError(err)
	require.True(t, ok)

	p, err := f.payments.FindByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
}

func TestConfirm_NotThePayer(t *testing.T) {
	f := newSettleFixture(t)

	_, _, err := f.uc.Confirm(context.Background(), domain.Actor{ID: "u2", Role: domain.RoleStudent}, "pay-1", dto.ConfirmPaymentRequest{})
	_, ok := apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)
}

func TestConfirm_UnknownPayment(t *testing.T) {
	f := newSettleFixture(t)

	_, _, err := f.uc.Confirm(context.Background(), student, "nope", dto.ConfirmPaymentRequest{})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestWebhook_RedeliveryIsNoOp(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()
	req := dto.PaymentWebhookRequest{OrderID: "o1", Status: "TXN_SUCCESS", TransactionID: "T-9"}

	first, err := f.uc.Webhook(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Applied)

	order, err := f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	paidAt := order.UpdatedAt

	second, err := f.uc.Webhook(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Acknowledged)
	assert.False(t, second.Applied)

	order, err = f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.Equal(t, "K7P2QX", order.PickupCode)
	assert.True(t, paidAt.Equal(order.UpdatedAt))
}

func TestWebhook_Failure(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	resp, err := f.uc.Webhook(ctx, dto.PaymentWebhookRequest{OrderID: "o1", Status: "FAILED"})
	require.NoError(t, err)
	assert.True(t, resp.Applied)

	order, err := f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)

	p, err := f.payments.FindByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, p.Status)
}

func TestWebhook_ContradictingOutcomeIgnored(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	_, err := f.uc.Webhook(ctx, dto.PaymentWebhookRequest{OrderID: "o1", Status: "SUCCESS"})
	require.NoError(t, err)

	resp, err := f.uc.Webhook(ctx, dto.PaymentWebhookRequest{OrderID: "o1", Status: "TXN_FAILURE"})
	require.NoError(t, err)
	assert.False(t, resp.Applied)

	order, err := f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestWebhook_RepairsPaymentWhenOrderAlreadyPaid(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	// order moved but the payment write was lost
	_, err := f.orders.UpdateStatus(ctx, "o1", domain.OrderStatusCreated, domain.StatusChange{
		To: domain.OrderStatusPaid, PickupCode: "ABCDEF", At: fixedNow,
	})
	require.NoError(t, err)

	resp, err := f.uc.Webhook(ctx, dto.PaymentWebhookRequest{OrderID: "o1", Status: "SUCCESS", TransactionID: "T-2"})
	require.NoError(t, err)
	assert.True(t, resp.Applied)

	p, err := f.payments.FindByID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)

	order, err := f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", order.PickupCode)
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	f := newSettleFixture(t)

	resp, err := f.uc.Webhook(context.Background(), dto.PaymentWebhookRequest{OrderID: "ghost", Status: "SUCCESS"})
	require.NoError(t, err)
	assert.True(t, resp.Acknowledged)
	assert.False(t, resp.Applied)
}

func TestWebhook_CancelledOrderNotPaid(t *testing.T) {
	f := newSettleFixture(t)
	ctx := context.Background()

	_, err := f.orders.UpdateStatus(ctx, "o1", domain.OrderStatusCreated, domain.StatusChange{
		To: domain.OrderStatusCancelled, CancelledBy: domain.CancelledByStudent, At: fixedNow,
	})
	require.NoError(t, err)

	resp, err := f.uc.Webhook(ctx, dto.PaymentWebhookRequest{OrderID: "o1", Status: "SUCCESS"})
	require.NoError(t, err)
	assert.False(t, resp.Applied)

	order, err := f.orders.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
}

func TestWebhook_StorageErrorPropagates(t *testing.T) {
	payments := &mockPaymentRepository{
		FindLatestByOrderFunc: func(ctx context.Context, orderID string) (*domain.Payment, error) {
			return nil, assert.AnError
		},
	}
	uc := NewSettlePaymentUseCase(ordersOf(createdOrder()), payments, &mockOrderSettler{}, time.Now, zap.NewNop())

	_, err := uc.Webhook(context.Background(), dto.PaymentWebhookRequest{OrderID: "o1", Status: "SUCCESS"})
	assert.ErrorIs(t, err, assert.AnError)
}
