package mocks

import (
	"context"
	"sync"

	"github.com/you/tradeauth/domain"
)

// MockIdentityRepository implements domain.IdentityRepository for testing.
// Without overrides it behaves as a small in-memory account space.
type MockIdentityRepository struct {
	ResolveFunc          func(ctx context.Context, identifier string) (*domain.Identity, error)
	ResolvePrincipalFunc func(ctx context.Context, principal domain.Principal) (*domain.Identity, error)
	FindMatchesFunc      func(ctx context.Context, email, phone string) ([]*domain.Identity, error)
	CreateFunc           func(ctx context.Context, role domain.Role, identity *domain.Identity) (*domain.Identity, error)
	MarkVerifiedFunc     func(ctx context.Context, identity *domain.Identity) error
	UpdateCredentialFunc func(ctx context.Context, identity *domain.Identity, credential domain.Credential) error

	mu         sync.Mutex
	identities []*domain.Identity
	nextID     uint
}

// Compile-time interface compliance verification
var _ domain.IdentityRepository = (*MockIdentityRepository)(nil)

// NewMockIdentityRepository creates a new MockIdentityRepository
func NewMockIdentityRepository() *MockIdentityRepository {
	return &MockIdentityRepository{nextID: 1}
}

// Add seeds an identity and returns it (test helper)
func (m *MockIdentityRepository) Add(identity *domain.Identity) *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.ID == 0 {
		identity.ID = m.nextID
		m.nextID++
	}
	if identity.SourceStore == "" {
		identity.SourceStore = domain.StoreUser
	}
	m.identities = append(m.identities, identity)
	return identity
}

// Identities returns the seeded identities (test helper)
func (m *MockIdentityRepository) Identities() []*domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Identity(nil), m.identities...)
}

// Resolve finds an identity by email or phone
func (m *MockIdentityRepository) Resolve(ctx context.Context, identifier string) (*domain.Identity, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, identifier)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identifier != "" && (identity.Email == identifier || identity.Phone == identifier) {
			return identity, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

// ResolvePrincipal finds the identity a token was issued to
func (m *MockIdentityRepository) ResolvePrincipal(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	if m.ResolvePrincipalFunc != nil {
		return m.ResolvePrincipalFunc(ctx, principal)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.ID == principal.IdentityID && identity.SourceStore == principal.Store {
			return identity, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

// FindMatches returns identities sharing the email or phone
func (m *MockIdentityRepository) FindMatches(ctx context.Context, email, phone string) ([]*domain.Identity, error) {
	if m.FindMatchesFunc != nil {
		return m.FindMatchesFunc(ctx, email, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*domain.Identity
	for _, identity := range m.identities {
		if (email != "" && identity.Email == email) || (phone != "" && identity.Phone == phone) {
			matches = append(matches, identity)
		}
	}
	return matches, nil
}

// Create stores a new identity
func (m *MockIdentityRepository) Create(ctx context.Context, role domain.Role, identity *domain.Identity) (*domain.Identity, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, role, identity)
	}
	identity.Role = role
	return m.Add(identity), nil
}

// MarkVerified flags the identity as verified
func (m *MockIdentityRepository) MarkVerified(ctx context.Context, identity *domain.Identity) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, identity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identity.Verified = true
	return nil
}

// UpdateCredential replaces the stored credential
func (m *MockIdentityRepository) UpdateCredential(ctx context.Context, identity *domain.Identity, credential domain.Credential) error {
	if m.UpdateCredentialFunc != nil {
		return m.UpdateCredentialFunc(ctx, identity, credential)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identity.Credential = credential
	return nil
}
