package mocks

import (
	"context"
	"time"

	"github.com/you/tradeauth/domain"
)

// MockRegistrationService implements domain.RegistrationService for testing
type MockRegistrationService struct {
	RegisterFunc func(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error)
}

// Compile-time interface compliance verification
var _ domain.RegistrationService = (*MockRegistrationService)(nil)

// NewMockRegistrationService creates a new MockRegistrationService
func NewMockRegistrationService() *MockRegistrationService {
	return &MockRegistrationService{}
}

// Register returns a pending registration by default
func (m *MockRegistrationService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &domain.RegistrationResult{
		Status:  domain.RegistrationPending,
		Message: "verification code sent",
		Identity: &domain.Identity{
			ID:    1,
			Email: req.Email,
			Phone: req.Phone,
		},
	}, nil
}

// MockLoginService implements domain.LoginService for testing
type MockLoginService struct {
	LoginFunc          func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error)
	RequestOTPFunc     func(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error)
	VerifyOTPFunc      func(ctx context.Context, identifier, code, adminCode string) (*domain.AuthResult, error)
	ChangePasswordFunc func(ctx context.Context, principal domain.Principal, current, next string) error
	ProfileFunc        func(ctx context.Context, principal domain.Principal) (*domain.Identity, error)
}

// Compile-time interface compliance verification
var _ domain.LoginService = (*MockLoginService)(nil)

// NewMockLoginService creates a new MockLoginService
func NewMockLoginService() *MockLoginService {
	return &MockLoginService{}
}

func issuedResult(identifier string) *domain.AuthResult {
	return &domain.AuthResult{
		Outcome: domain.LoginIssued,
		Identity: &domain.Identity{
			ID:          1,
			Email:       identifier,
			Role:        domain.RoleBuyer,
			Verified:    true,
			SourceStore: domain.StoreUser,
		},
		Token:     "mock_token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// Login issues a session by default
func (m *MockLoginService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return issuedResult(req.Identifier), nil
}

// RequestOTP reports a pending OTP by default
func (m *MockLoginService) RequestOTP(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	if m.RequestOTPFunc != nil {
		return m.RequestOTPFunc(ctx, req)
	}
	return &domain.AuthResult{Outcome: domain.LoginOTPPending, Message: "verification code sent"}, nil
}

// VerifyOTP issues a session by default
func (m *MockLoginService) VerifyOTP(ctx context.Context, identifier, code, adminCode string) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, identifier, code, adminCode)
	}
	return issuedResult(identifier), nil
}

// ChangePassword succeeds by default
func (m *MockLoginService) ChangePassword(ctx context.Context, principal domain.Principal, current, next string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, principal, current, next)
	}
	return nil
}

// Profile returns an identity built from the principal by default
func (m *MockLoginService) Profile(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, principal)
	}
	return &domain.Identity{
		ID:          principal.IdentityID,
		Email:       principal.Email,
		Role:        principal.Role,
		SourceStore: principal.Store,
		Verified:    true,
	}, nil
}
