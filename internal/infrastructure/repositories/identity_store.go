package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/you/tradeauth/domain"
	"gorm.io/gorm"
)

// identityRow is implemented by the pointer type of every identity table model
type identityRow[T any] interface {
	*T
	key() uint
	toIdentity() *domain.Identity
	fromIdentity(identity *domain.Identity)
}

// IdentityStoreImpl implements domain.IdentityStore for one table using GORM
type IdentityStoreImpl[T any, P identityRow[T]] struct {
	db   *gorm.DB
	kind domain.StoreKind
}

// NewUserStore creates the generic base account store
func NewUserStore(db *gorm.DB) domain.IdentityStore {
	return &IdentityStoreImpl[DBUser, *DBUser]{db: db, kind: domain.StoreUser}
}

// NewVendorStore creates the vendor store
func NewVendorStore(db *gorm.DB) domain.IdentityStore {
	return &IdentityStoreImpl[DBVendor, *DBVendor]{db: db, kind: domain.StoreVendor}
}

// NewAdminStore creates the admin store
func NewAdminStore(db *gorm.DB) domain.IdentityStore {
	return &IdentityStoreImpl[DBAdmin, *DBAdmin]{db: db, kind: domain.StoreAdmin}
}

// NewBuyerStore creates the buyer store
func NewBuyerStore(db *gorm.DB) domain.IdentityStore {
	return &IdentityStoreImpl[DBBuyer, *DBBuyer]{db: db, kind: domain.StoreBuyer}
}

// NewIdentityStores returns the four stores in resolution order
func NewIdentityStores(db *gorm.DB) []domain.IdentityStore {
	return []domain.IdentityStore{
		NewUserStore(db),
		NewVendorStore(db),
		NewAdminStore(db),
		NewBuyerStore(db),
	}
}

// Kind implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) Kind() domain.StoreKind {
	return s.kind
}

// FindByID implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) FindByID(ctx context.Context, id uint) (*domain.Identity, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByEmail implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if email == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return s.findOne(ctx, "email = ?", email)
}

// FindByPhone implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	if phone == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return s.findOne(ctx, "phone = ?", phone)
}

// Save implements domain.IdentityStore. A unique index violation is reported
// as domain.ErrAlreadyExists so concurrent registrations fail cleanly.
func (s *IdentityStoreImpl[T, P]) Save(ctx context.Context, identity *domain.Identity) error {
	var row T
	P(&row).fromIdentity(identity)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	saved := P(&row).toIdentity()
	identity.ID = P(&row).key()
	identity.CreatedAt = saved.CreatedAt
	identity.UpdatedAt = saved.UpdatedAt
	identity.SourceStore = s.kind
	return nil
}

// MarkVerified implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) MarkVerified(ctx context.Context, id uint) error {
	return s.update(ctx, id, map[string]interface{}{"verified": true})
}

// UpdateCredential implements domain.IdentityStore
func (s *IdentityStoreImpl[T, P]) UpdateCredential(ctx context.Context, id uint, credential domain.Credential) error {
	return s.update(ctx, id, map[string]interface{}{
		"password":        credential.Value,
		"password_format": string(credential.Format),
	})
}

func (s *IdentityStoreImpl[T, P]) findOne(ctx context.Context, query string, args ...interface{}) (*domain.Identity, error) {
	var row T
	err := s.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	identity := P(&row).toIdentity()
	identity.SourceStore = s.kind
	return identity, nil
}

func (s *IdentityStoreImpl[T, P]) update(ctx context.Context, id uint, values map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors from postgres and sqlite,
// whether or not the dialector translated them
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
