package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/tradeauth/domain"
)

// storeRoute says where a newly registered role is persisted
type storeRoute struct {
	profile  domain.StoreKind
	linkBase bool
}

// roleRoutes maps every role to its target store. Buyers and sellers get a
// profile row linked to a base row in the user store.
var roleRoutes = map[domain.Role]storeRoute{
	domain.RoleBuyer:     {profile: domain.StoreBuyer, linkBase: true},
	domain.RoleSeller:    {profile: domain.StoreVendor, linkBase: true},
	domain.RoleAdmin:     {profile: domain.StoreAdmin},
	domain.RoleSupport:   {profile: domain.StoreUser},
	domain.RoleCTO:       {profile: domain.StoreUser},
	domain.RoleDataEntry: {profile: domain.StoreUser},
}

// IdentityRegistry implements domain.IdentityRepository over an ordered list
// of identity stores. Lookups walk the stores in order and the first match wins.
type IdentityRegistry struct {
	stores []domain.IdentityStore
	byKind map[domain.StoreKind]domain.IdentityStore
	tx     domain.IdentityTxRunner
}

// NewIdentityRegistry creates a registry; stores must be given in resolution order
func NewIdentityRegistry(stores ...domain.IdentityStore) *IdentityRegistry {
	return &IdentityRegistry{stores: stores, byKind: indexStores(stores)}
}

// WithTransactions makes Create write an account's rows in one transaction
// opened by runner. Without a runner each row is saved on its own.
func (r *IdentityRegistry) WithTransactions(runner domain.IdentityTxRunner) *IdentityRegistry {
	r.tx = runner
	return r
}

func indexStores(stores []domain.IdentityStore) map[domain.StoreKind]domain.IdentityStore {
	byKind := make(map[domain.StoreKind]domain.IdentityStore, len(stores))
	for _, s := range stores {
		byKind[s.Kind()] = s
	}
	return byKind
}

var _ domain.IdentityRepository = (*IdentityRegistry)(nil)

// Resolve implements domain.IdentityRepository
func (r *IdentityRegistry) Resolve(ctx context.Context, identifier string) (*domain.Identity, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: email or phone is required", domain.ErrValidation)
	}

	lookup := func(s domain.IdentityStore) (*domain.Identity, error) {
		return s.FindByPhone(ctx, identifier)
	}
	if domain.DetectIdentifier(identifier) == domain.IdentifierEmail {
		lookup = func(s domain.IdentityStore) (*domain.Identity, error) {
			return s.FindByEmail(ctx, identifier)
		}
	}

	for _, s := range r.stores {
		identity, err := lookup(s)
		if err == nil {
			return identity, nil
		}
		if !errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, fmt.Errorf("failed to search %s store: %w", s.Kind(), err)
		}
	}
	return nil, domain.ErrIdentityNotFound
}

// ResolvePrincipal implements domain.IdentityRepository
func (r *IdentityRegistry) ResolvePrincipal(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	s, ok := r.byKind[principal.Store]
	if !ok {
		return nil, domain.ErrUnknownStore
	}
	return s.FindByID(ctx, principal.IdentityID)
}

// FindMatches implements domain.IdentityRepository
func (r *IdentityRegistry) FindMatches(ctx context.Context, email, phone string) ([]*domain.Identity, error) {
	var matches []*domain.Identity
	for _, s := range r.stores {
		seen := map[uint]bool{}
		for _, find := range []struct {
			value string
			fn    func(context.Context, string) (*domain.Identity, error)
		}{
			{value: email, fn: s.FindByEmail},
			{value: phone, fn: s.FindByPhone},
		} {
			if find.value == "" {
				continue
			}
			identity, err := find.fn(ctx, find.value)
			if errors.Is(err, domain.ErrIdentityNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to search %s store: %w", s.Kind(), err)
			}
			if !seen[identity.ID] {
				seen[identity.ID] = true
				matches = append(matches, identity)
			}
		}
	}
	return matches, nil
}

// Create implements domain.IdentityRepository. The returned identity is the
// row that Resolve finds first for the new account. A base row and its linked
// profile row are written together or not at all.
func (r *IdentityRegistry) Create(ctx context.Context, role domain.Role, identity *domain.Identity) (*domain.Identity, error) {
	route, ok := roleRoutes[role]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported role %q", domain.ErrValidation, role)
	}
	if r.tx == nil {
		return createRows(ctx, r.byKind, role, route, identity)
	}

	var created *domain.Identity
	err := r.tx.InTx(ctx, func(stores []domain.IdentityStore) error {
		var err error
		created, err = createRows(ctx, indexStores(stores), role, route, identity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func createRows(
	ctx context.Context,
	byKind map[domain.StoreKind]domain.IdentityStore,
	role domain.Role,
	route storeRoute,
	identity *domain.Identity,
) (*domain.Identity, error) {
	profileStore, ok := byKind[route.profile]
	if !ok {
		return nil, domain.ErrUnknownStore
	}

	if !route.linkBase {
		row := *identity
		row.Role = role
		if err := profileStore.Save(ctx, &row); err != nil {
			return nil, err
		}
		return &row, nil
	}

	baseStore, ok := byKind[domain.StoreUser]
	if !ok {
		return nil, domain.ErrUnknownStore
	}
	base := *identity
	base.Role = role
	if err := baseStore.Save(ctx, &base); err != nil {
		return nil, err
	}

	profile := *identity
	profile.Role = role
	profile.LinkedID = base.ID
	if err := profileStore.Save(ctx, &profile); err != nil {
		return nil, err
	}
	return &base, nil
}

// MarkVerified implements domain.IdentityRepository. Rows in other stores
// holding the same email or phone, such as a linked profile, are verified too.
func (r *IdentityRegistry) MarkVerified(ctx context.Context, identity *domain.Identity) error {
	rows, err := r.FindMatches(ctx, identity.Email, identity.Phone)
	if err != nil {
		return err
	}
	rows = appendUnique(rows, identity)

	for _, row := range rows {
		s, ok := r.byKind[row.SourceStore]
		if !ok {
			return domain.ErrUnknownStore
		}
		if err := s.MarkVerified(ctx, row.ID); err != nil {
			return fmt.Errorf("failed to verify %s row %d: %w", row.SourceStore, row.ID, err)
		}
	}
	identity.Verified = true
	return nil
}

// UpdateCredential implements domain.IdentityRepository. Linked rows share the
// password so every row that matches the identity is updated.
func (r *IdentityRegistry) UpdateCredential(ctx context.Context, identity *domain.Identity, credential domain.Credential) error {
	rows, err := r.FindMatches(ctx, identity.Email, identity.Phone)
	if err != nil {
		return err
	}
	rows = appendUnique(rows, identity)

	for _, row := range rows {
		s, ok := r.byKind[row.SourceStore]
		if !ok {
			return domain.ErrUnknownStore
		}
		if err := s.UpdateCredential(ctx, row.ID, credential); err != nil {
			return fmt.Errorf("failed to update %s row %d: %w", row.SourceStore, row.ID, err)
		}
	}
	identity.Credential = credential
	return nil
}

func appendUnique(rows []*domain.Identity, identity *domain.Identity) []*domain.Identity {
	for _, row := range rows {
		if row.SourceStore == identity.SourceStore && row.ID == identity.ID {
			return rows
		}
	}
	return append(rows, identity)
}
