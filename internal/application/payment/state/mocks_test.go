package state

import (
	"context"
	"fmt"

	"wcpay-checkout/internal/common/logger"
	"wcpay-checkout/internal/common/metrics"
	"wcpay-checkout/internal/domain/order"
	"wcpay-checkout/internal/domain/payment"

	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkOrderAsFailed(ctx context.Context, orderID int64, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *MockOrderService) UpdateOrderFromSuccessfulIntent(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error {
	args := m.Called(ctx, orderID, intent, pctx)
	return args.Error(0)
}

func (m *MockOrderService) UpdateOrderFromIntentRequiringAction(ctx context.Context, orderID int64, intent *payment.Intent, pctx *payment.Context) error {
	args := m.Called(ctx, orderID, intent, pctx)
	return args.Error(0)
}

func (m *MockOrderService) AddNote(ctx context.Context, orderID int64, note string) error {
	args := m.Called(ctx, orderID, note)
	return args.Error(0)
}

func (m *MockOrderService) OrderReceivedURL(o *order.Order) string {
	return fmt.Sprintf("https://shop.test/checkout/order-received/%d/?key=%s", o.ID, o.OrderKey)
}

type MockPaymentRequestService struct {
	mock.Mock
}

func (m *MockPaymentRequestService) CreateIntent(ctx context.Context, pctx *payment.Context) (*payment.Intent, error) {
	args := m.Called(ctx, pctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type MockDuplicateService struct {
	mock.Mock
}

func (m *MockDuplicateService) PreviousPaidOrder(ctx context.Context, o *order.Order) (*order.Order, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockDuplicateService) IsAlreadyPaid(ctx context.Context, o *order.Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

type MockEncryptionService struct {
	mock.Mock
}

func (m *MockEncryptionService) EncryptClientSecret(customerID, clientSecret string) (string, error) {
	args := m.Called(customerID, clientSecret)
	return args.String(0), args.Error(1)
}

type MockNonceService struct {
	mock.Mock
}

func (m *MockNonceService) Create(action, subject string) string {
	args := m.Called(action, subject)
	return args.String(0)
}

type testDeps struct {
	orders     *MockOrderService
	requests   *MockPaymentRequestService
	duplicates *MockDuplicateService
	encryption *MockEncryptionService
	nonces     *MockNonceService
	logger     *logger.MockLogger
	metrics    *metrics.MockCollector
}

func newTestDeps() *testDeps {
	return &testDeps{
		orders:     new(MockOrderService),
		requests:   new(MockPaymentRequestService),
		duplicates: new(MockDuplicateService),
		encryption: new(MockEncryptionService),
		nonces:     new(MockNonceService),
		logger:     logger.NewMockLogger(),
		metrics:    metrics.NewMockCollector(),
	}
}

func (d *testDeps) dependencies() Dependencies {
	return Dependencies{
		Orders:          d.orders,
		PaymentRequests: d.requests,
		Encryption:      d.encryption,
		Nonces:          d.nonces,
		Duplicates:      d.duplicates,
		Logger:          d.logger,
		Metrics:         d.metrics,
	}
}

func (d *testDeps) factory() *Factory {
	return NewFactory(d.dependencies())
}

func testOrder(id, total int64) *order.Order {
	return &order.Order{
		ID:         id,
		OrderKey:   "wc_order_abc",
		Status:     order.StatusPending,
		Total:      total,
		Currency:   "usd",
		CustomerID: "cus_123",
		CartHash:   "cart_hash_1",
	}
}
