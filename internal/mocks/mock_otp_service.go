package mocks

import (
	"context"
	"sync"

	"github.com/you/tradeauth/domain"
)

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	IssueFunc  func(ctx context.Context, keys ...string) error
	VerifyFunc func(ctx context.Context, key, code string) error

	mu     sync.Mutex
	issued [][]string
}

// Compile-time interface compliance verification
var _ domain.OTPService = (*MockOTPService)(nil)

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

// Issue records the keys a code was issued for
func (m *MockOTPService) Issue(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	m.issued = append(m.issued, append([]string(nil), keys...))
	m.mu.Unlock()
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, keys...)
	}
	return nil
}

// Verify accepts "123456" by default
func (m *MockOTPService) Verify(ctx context.Context, key, code string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, key, code)
	}
	if code != "123456" {
		return domain.ErrOTPMismatch
	}
	return nil
}

// Issued returns every Issue call's keys (test helper)
func (m *MockOTPService) Issued() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.issued...)
}
