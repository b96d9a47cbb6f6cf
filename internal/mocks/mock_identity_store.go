package mocks

import (
	"context"

	"github.com/you/tradeauth/domain"
)

// MockIdentityStore implements domain.IdentityStore for failure injection
type MockIdentityStore struct {
	KindValue            domain.StoreKind
	FindByIDFunc         func(ctx context.Context, id uint) (*domain.Identity, error)
	FindByEmailFunc      func(ctx context.Context, email string) (*domain.Identity, error)
	FindByPhoneFunc      func(ctx context.Context, phone string) (*domain.Identity, error)
	SaveFunc             func(ctx context.Context, identity *domain.Identity) error
	MarkVerifiedFunc     func(ctx context.Context, id uint) error
	UpdateCredentialFunc func(ctx context.Context, id uint, credential domain.Credential) error
}

// Compile-time interface compliance verification
var _ domain.IdentityStore = (*MockIdentityStore)(nil)

// NewMockIdentityStore creates an empty store of the given kind
func NewMockIdentityStore(kind domain.StoreKind) *MockIdentityStore {
	return &MockIdentityStore{KindValue: kind}
}

// Kind returns the configured store kind
func (m *MockIdentityStore) Kind() domain.StoreKind {
	return m.KindValue
}

// FindByID finds an identity by primary key
func (m *MockIdentityStore) FindByID(ctx context.Context, id uint) (*domain.Identity, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrIdentityNotFound
}

// FindByEmail finds an identity by email
func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrIdentityNotFound
}

// FindByPhone finds an identity by phone
func (m *MockIdentityStore) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, domain.ErrIdentityNotFound
}

// Save persists a new identity
func (m *MockIdentityStore) Save(ctx context.Context, identity *domain.Identity) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, identity)
	}
	identity.SourceStore = m.KindValue
	return nil
}

// MarkVerified flags an identity as verified
func (m *MockIdentityStore) MarkVerified(ctx context.Context, id uint) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

// UpdateCredential replaces a stored credential
func (m *MockIdentityStore) UpdateCredential(ctx context.Context, id uint, credential domain.Credential) error {
	if m.UpdateCredentialFunc != nil {
		return m.UpdateCredentialFunc(ctx, id, credential)
	}
	return nil
}
