package mocks

import (
	"fmt"
	"strings"
	"time"

	"github.com/you/tradeauth/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueTokenFunc    func(identity *domain.Identity) (string, time.Time, error)
	ValidateTokenFunc func(token string) (*domain.TokenClaims, error)
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueToken returns "token-<store>-<id>" valid for an hour
func (m *MockTokenService) IssueToken(identity *domain.Identity) (string, time.Time, error) {
	if m.IssueTokenFunc != nil {
		return m.IssueTokenFunc(identity)
	}
	return fmt.Sprintf("token-%s-%d", identity.SourceStore, identity.ID), time.Now().Add(time.Hour), nil
}

// ValidateToken accepts tokens of the form produced by IssueToken
func (m *MockTokenService) ValidateToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(token)
	}
	if !strings.HasPrefix(token, "token-") {
		return nil, domain.ErrTokenInvalid
	}
	now := time.Now()
	return &domain.TokenClaims{
		TokenID:    "mock-jti",
		IdentityID: 1,
		Role:       domain.RoleBuyer,
		Store:      domain.StoreUser,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}, nil
}
