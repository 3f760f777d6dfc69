package service

import (
	"context"
	"sync"

	"github.com/vakhileshni/whatsApp-sub000/internal/clients"
	"github.com/vakhileshni/whatsApp-sub000/internal/models"
)

// MockOrderBackend implements OrderBackend for testing
type MockOrderBackend struct {
	UpdateOrderStatusFunc  func(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
	VerifyOrderPaymentFunc func(ctx context.Context, orderID, payerName string) (*models.Order, error)
	UpdateCalls            int
	VerifyCalls            int
}

func (m *MockOrderBackend) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	m.UpdateCalls++
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, orderID, status)
	}
	return &models.Order{ID: models.ID(orderID), Status: status}, nil
}

func (m *MockOrderBackend) VerifyOrderPayment(ctx context.Context, orderID, payerName string) (*models.Order, error) {
	m.VerifyCalls++
	if m.VerifyOrderPaymentFunc != nil {
		return m.VerifyOrderPaymentFunc(ctx, orderID, payerName)
	}
	return &models.Order{
		ID:              models.ID(orderID),
		PaymentMethod:   models.PaymentMethodOnline,
		PaymentStatus:   models.PaymentStatusVerified,
		CustomerUPIName: payerName,
	}, nil
}

// MockOrderSync implements OrderSync for testing
type MockOrderSync struct {
	Orders       map[string]models.Order
	RefreshErr   error
	RefreshCalls int
	Applied      []models.Order
}

func (m *MockOrderSync) Lookup(orderID string) (models.Order, bool) {
	order, ok := m.Orders[orderID]
	return order, ok
}

func (m *MockOrderSync) Refresh(ctx context.Context) error {
	m.RefreshCalls++
	return m.RefreshErr
}

func (m *MockOrderSync) ApplyOrder(order models.Order) {
	m.Applied = append(m.Applied, order)
}

// MockJournal records every action
type MockJournal struct {
	mu      sync.Mutex
	Actions []*models.OperatorAction
	Err     error
}

func (m *MockJournal) Record(ctx context.Context, action *models.OperatorAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Actions = append(m.Actions, action)
	return m.Err
}

// MockUPIBackend implements UPIBackend for testing
type MockUPIBackend struct {
	RequestFunc  func(ctx context.Context, request clients.UPIChallengeRequest) (*models.UPIChallenge, error)
	ConfirmFunc  func(ctx context.Context, request clients.UPIConfirmRequest) (*models.RestaurantInfo, error)
	RequestCalls int
	ConfirmCalls int
	LastConfirm  clients.UPIConfirmRequest
}

func (m *MockUPIBackend) RequestUPIChallenge(ctx context.Context, request clients.UPIChallengeRequest) (*models.UPIChallenge, error) {
	m.RequestCalls++
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, request)
	}
	return &models.UPIChallenge{
		UPIID:              request.UPIID,
		QRData:             "upi://pay?pa=" + request.UPIID,
		VerificationCode:   "482913",
		VerificationAmount: testAmount,
	}, nil
}

func (m *MockUPIBackend) ConfirmUPIVerification(ctx context.Context, request clients.UPIConfirmRequest) (*models.RestaurantInfo, error) {
	m.ConfirmCalls++
	m.LastConfirm = request
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, request)
	}
	return &models.RestaurantInfo{ID: "1", Name: "Blue Cafe", UPIID: request.UPIID, UPIVerified: true}, nil
}
