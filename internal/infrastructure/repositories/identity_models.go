package repositories

import (
	"time"

	"github.com/you/tradeauth/domain"
)

// DBUser is the generic base account table. Staff roles live here alone;
// buyers and vendors get a base row linked from their profile row.
type DBUser struct {
	ID             uint    `gorm:"primaryKey"`
	Email          *string `gorm:"uniqueIndex;size:255"`
	Phone          *string `gorm:"uniqueIndex;size:32"`
	PasswordHash   string  `gorm:"column:password"`
	PasswordFormat string  `gorm:"size:32"`
	Name           string  `gorm:"size:255"`
	Role           string  `gorm:"index;size:32"`
	Status         string  `gorm:"index;size:32;default:ACTIVE"`
	Verified       bool    `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

func (u *DBUser) key() uint { return u.ID }

func (u *DBUser) toIdentity() *domain.Identity {
	return &domain.Identity{
		ID:          u.ID,
		Email:       deref(u.Email),
		Phone:       deref(u.Phone),
		Credential:  domain.StoredCredential(u.PasswordHash, u.PasswordFormat),
		DisplayName: u.Name,
		Role:        domain.Role(u.Role),
		Verified:    u.Verified,
		Status:      domain.AccountStatus(u.Status),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (u *DBUser) fromIdentity(identity *domain.Identity) {
	u.ID = identity.ID
	u.Email = nullable(identity.Email)
	u.Phone = nullable(identity.Phone)
	u.PasswordHash = identity.Credential.Value
	u.PasswordFormat = string(identity.Credential.Format)
	u.Name = identity.DisplayName
	u.Role = string(identity.Role)
	u.Status = string(identity.Status)
	u.Verified = identity.Verified
}

// DBVendor is the seller profile table
type DBVendor struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         *uint   `gorm:"index"`
	Email          *string `gorm:"uniqueIndex;size:255"`
	Phone          *string `gorm:"uniqueIndex;size:32"`
	PasswordHash   string  `gorm:"column:password"`
	PasswordFormat string  `gorm:"size:32"`
	CompanyName    string  `gorm:"size:255"`
	Status         string  `gorm:"index;size:32;default:ACTIVE"`
	Verified       bool    `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBVendor) TableName() string {
	return "vendors"
}

func (v *DBVendor) key() uint { return v.ID }

func (v *DBVendor) toIdentity() *domain.Identity {
	return &domain.Identity{
		ID:          v.ID,
		Email:       deref(v.Email),
		Phone:       deref(v.Phone),
		Credential:  domain.StoredCredential(v.PasswordHash, v.PasswordFormat),
		DisplayName: v.CompanyName,
		Role:        domain.RoleSeller,
		Verified:    v.Verified,
		Status:      domain.AccountStatus(v.Status),
		LinkedID:    derefID(v.UserID),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func (v *DBVendor) fromIdentity(identity *domain.Identity) {
	v.ID = identity.ID
	v.UserID = nullableID(identity.LinkedID)
	v.Email = nullable(identity.Email)
	v.Phone = nullable(identity.Phone)
	v.PasswordHash = identity.Credential.Value
	v.PasswordFormat = string(identity.Credential.Format)
	v.CompanyName = identity.DisplayName
	v.Status = string(identity.Status)
	v.Verified = identity.Verified
}

// DBAdmin is the back-office admin table
type DBAdmin struct {
	ID             uint    `gorm:"primaryKey"`
	Email          *string `gorm:"uniqueIndex;size:255"`
	Phone          *string `gorm:"uniqueIndex;size:32"`
	PasswordHash   string  `gorm:"column:password"`
	PasswordFormat string  `gorm:"size:32"`
	Name           string  `gorm:"size:255"`
	Role           string  `gorm:"size:32;default:ADMIN"`
	Status         string  `gorm:"index;size:32;default:ACTIVE"`
	Verified       bool    `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBAdmin) TableName() string {
	return "admins"
}

func (a *DBAdmin) key() uint { return a.ID }

func (a *DBAdmin) toIdentity() *domain.Identity {
	role := domain.Role(a.Role)
	if role == "" {
		role = domain.RoleAdmin
	}
	return &domain.Identity{
		ID:          a.ID,
		Email:       deref(a.Email),
		Phone:       deref(a.Phone),
		Credential:  domain.StoredCredential(a.PasswordHash, a.PasswordFormat),
		DisplayName: a.Name,
		Role:        role,
		Verified:    a.Verified,
		Status:      domain.AccountStatus(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (a *DBAdmin) fromIdentity(identity *domain.Identity) {
	a.ID = identity.ID
	a.Email = nullable(identity.Email)
	a.Phone = nullable(identity.Phone)
	a.PasswordHash = identity.Credential.Value
	a.PasswordFormat = string(identity.Credential.Format)
	a.Name = identity.DisplayName
	a.Role = string(identity.Role)
	a.Status = string(identity.Status)
	a.Verified = identity.Verified
}

// DBBuyer is the buyer profile table
type DBBuyer struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         *uint   `gorm:"index"`
	Email          *string `gorm:"uniqueIndex;size:255"`
	Phone          *string `gorm:"uniqueIndex;size:32"`
	PasswordHash   string  `gorm:"column:password"`
	PasswordFormat string  `gorm:"size:32"`
	FullName       string  `gorm:"size:255"`
	Status         string  `gorm:"index;size:32;default:ACTIVE"`
	Verified       bool    `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBBuyer) TableName() string {
	return "buyers"
}

func (b *DBBuyer) key() uint { return b.ID }

func (b *DBBuyer) toIdentity() *domain.Identity {
	return &domain.Identity{
		ID:          b.ID,
		Email:       deref(b.Email),
		Phone:       deref(b.Phone),
		Credential:  domain.StoredCredential(b.PasswordHash, b.PasswordFormat),
		DisplayName: b.FullName,
		Role:        domain.RoleBuyer,
		Verified:    b.Verified,
		Status:      domain.AccountStatus(b.Status),
		LinkedID:    derefID(b.UserID),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (b *DBBuyer) fromIdentity(identity *domain.Identity) {
	b.ID = identity.ID
	b.UserID = nullableID(identity.LinkedID)
	b.Email = nullable(identity.Email)
	b.Phone = nullable(identity.Phone)
	b.PasswordHash = identity.Credential.Value
	b.PasswordFormat = string(identity.Credential.Format)
	b.FullName = identity.DisplayName
	b.Status = string(identity.Status)
	b.Verified = identity.Verified
}

// Models lists every table owned by the identity stores, for migrations
func Models() []interface{} {
	return []interface{}{&DBUser{}, &DBVendor{}, &DBAdmin{}, &DBBuyer{}}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
