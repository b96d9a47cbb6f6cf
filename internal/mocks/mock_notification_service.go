package mocks

import (
	"context"
	"sync"

	"github.com/you/tradeauth/domain"
)

// SentMessage is a message captured by the notification mocks
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockSMSSender implements domain.SMSSender interface for testing
type MockSMSSender struct {
	SendSMSFunc func(ctx context.Context, to, message string) error

	mu   sync.Mutex
	sent []SentMessage
}

// Compile-time interface compliance verification
var _ domain.SMSSender = (*MockSMSSender)(nil)

// NewMockSMSSender creates a new MockSMSSender
func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{}
}

// SendSMS records the message
func (m *MockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{To: to, Body: message})
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return nil
}

// Sent returns recorded messages (test helper)
func (m *MockSMSSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// MockEmailSender implements domain.EmailSender interface for testing
type MockEmailSender struct {
	SendEmailFunc func(ctx context.Context, to, subject, body string) error

	mu   sync.Mutex
	sent []SentMessage
}

// Compile-time interface compliance verification
var _ domain.EmailSender = (*MockEmailSender)(nil)

// NewMockEmailSender creates a new MockEmailSender
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

// SendEmail records the message
func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	return nil
}

// Sent returns recorded messages (test helper)
func (m *MockEmailSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// MockDispatcher implements domain.DeliveryDispatcher synchronously
type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, delivery domain.Delivery)

	mu         sync.Mutex
	deliveries []domain.Delivery
}

// Compile-time interface compliance verification
var _ domain.DeliveryDispatcher = (*MockDispatcher)(nil)

// NewMockDispatcher creates a new MockDispatcher
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// Dispatch records the delivery
func (m *MockDispatcher) Dispatch(ctx context.Context, delivery domain.Delivery) {
	m.mu.Lock()
	m.deliveries = append(m.deliveries, delivery)
	m.mu.Unlock()
	if m.DispatchFunc != nil {
		m.DispatchFunc(ctx, delivery)
	}
}

// Deliveries returns recorded deliveries (test helper)
func (m *MockDispatcher) Deliveries() []domain.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Delivery(nil), m.deliveries...)
}
