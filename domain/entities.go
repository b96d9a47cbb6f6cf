package domain

import (
	"strings"
	"time"
)

// Role is the account role carried by every identity
type Role string

const (
	RoleBuyer     Role = "BUYER"
	RoleSeller    Role = "SELLER"
	RoleAdmin     Role = "ADMIN"
	RoleSupport   Role = "SUPPORT"
	RoleCTO       Role = "CTO"
	RoleDataEntry Role = "DATA_ENTRY"
)

// roleAliases maps accepted request spellings onto canonical roles
var roleAliases = map[string]Role{
	"BUYER":      RoleBuyer,
	"USER":       RoleBuyer,
	"SELLER":     RoleSeller,
	"VENDOR":     RoleSeller,
	"ADMIN":      RoleAdmin,
	"SUPPORT":    RoleSupport,
	"CTO":        RoleCTO,
	"DATA_ENTRY": RoleDataEntry,
	"DATA-ENTRY": RoleDataEntry,
}

// ParseRole resolves a role name, accepting the USER and VENDOR aliases
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToUpper(strings.TrimSpace(s))]
	return r, ok
}

// Subject is the authorization subject used for the role in casbin policies
func (r Role) Subject() string {
	return "role_" + string(r)
}

// StoreKind tags which of the four identity stores backs an identity
type StoreKind string

const (
	StoreUser   StoreKind = "user"
	StoreVendor StoreKind = "vendor"
	StoreAdmin  StoreKind = "admin"
	StoreBuyer  StoreKind = "buyer"
)

// AccountStatus is the administrative state of an identity
type AccountStatus string

const (
	StatusActive      AccountStatus = "ACTIVE"
	StatusSuspended   AccountStatus = "SUSPENDED"
	StatusDeactivated AccountStatus = "DEACTIVATED"
)

// CredentialFormat tells how a stored password is encoded
type CredentialFormat string

const (
	CredentialHashed          CredentialFormat = "HASHED"
	CredentialLegacyPlaintext CredentialFormat = "LEGACY_PLAINTEXT"
)

// Credential is a stored password together with its format tag
type Credential struct {
	Value  string
	Format CredentialFormat
}

// Identity is the canonical account view assembled from one of the stores
type Identity struct {
	ID          uint
	Email       string
	Phone       string
	Credential  Credential
	DisplayName string
	Role        Role
	Verified    bool
	Status      AccountStatus
	SourceStore StoreKind
	// LinkedID is the base user row a buyer or vendor profile belongs to
	LinkedID  uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the identity may authenticate
func (i *Identity) IsActive() bool {
	return i.Status == "" || i.Status == StatusActive
}

// Contacts returns the non-empty email and phone of the identity
func (i *Identity) Contacts() []string {
	keys := make([]string, 0, 2)
	if i.Email != "" {
		keys = append(keys, i.Email)
	}
	if i.Phone != "" {
		keys = append(keys, i.Phone)
	}
	return keys
}

// OTPChallenge is a single-use code bound to an email or phone key
type OTPChallenge struct {
	Key       string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its expiry at now
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// RegistrationRequest carries the sign-up form
type RegistrationRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

// RegistrationStatus describes how a registration call ended
type RegistrationStatus string

const (
	RegistrationPending RegistrationStatus = "PENDING_VERIFICATION"
	RegistrationResent  RegistrationStatus = "RESENT"
)

// RegistrationResult is returned to the caller; the OTP itself never is
type RegistrationResult struct {
	Status   RegistrationStatus
	Message  string
	Identity *Identity
}

// LoginRequest covers both the generic and the role-specific login endpoints
type LoginRequest struct {
	Identifier   string
	Password     string
	AdminCode    string
	ExpectedRole *Role
}

// LoginOutcome tells whether a login produced a session or an OTP challenge
type LoginOutcome string

const (
	LoginIssued     LoginOutcome = "ISSUED"
	LoginOTPPending LoginOutcome = "OTP_PENDING"
)

// AuthResult is the outcome of a login or OTP verification
type AuthResult struct {
	Outcome   LoginOutcome
	Identity  *Identity
	Token     string
	ExpiresAt time.Time
	Message   string
}

// Principal is the caller identity extracted from a verified session token
type Principal struct {
	IdentityID uint
	Email      string
	Role       Role
	Store      StoreKind
}
