package domain

import (
	"context"
	"time"
)

// IdentityStore is one of the four keyed account stores
type IdentityStore interface {
	Kind() StoreKind
	FindByID(ctx context.Context, id uint) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByPhone(ctx context.Context, phone string) (*Identity, error)
	Save(ctx context.Context, identity *Identity) error
	MarkVerified(ctx context.Context, id uint) error
	UpdateCredential(ctx context.Context, id uint, credential Credential) error
}

// IdentityTxRunner runs fn with identity stores bound to one transaction.
// An error returned by fn rolls back every write made through those stores.
type IdentityTxRunner interface {
	InTx(ctx context.Context, fn func(stores []IdentityStore) error) error
}

// IdentityRepository presents the four stores as one logical account space
type IdentityRepository interface {
	Resolve(ctx context.Context, identifier string) (*Identity, error)
	ResolvePrincipal(ctx context.Context, principal Principal) (*Identity, error)
	FindMatches(ctx context.Context, email, phone string) ([]*Identity, error)
	Create(ctx context.Context, role Role, identity *Identity) (*Identity, error)
	MarkVerified(ctx context.Context, identity *Identity) error
	UpdateCredential(ctx context.Context, identity *Identity, credential Credential) error
}

// OTPStore persists challenges; Replace and Consume are atomic per key
type OTPStore interface {
	Replace(ctx context.Context, challenge *OTPChallenge) error
	Consume(ctx context.Context, key, code string, now time.Time) error
}

// OTPService issues and verifies one-time codes
type OTPService interface {
	Issue(ctx context.Context, keys ...string) error
	Verify(ctx context.Context, key, code string) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// CredentialValidator compares a candidate password with a stored credential
type CredentialValidator interface {
	Matches(candidate string, stored Credential) (ok bool, needsRehash bool)
}

// RoleGate enforces endpoint roles and the admin access code
type RoleGate interface {
	Check(identity *Identity, expected *Role, adminCode string) error
}

// SigningKeyProvider supplies the session signing key
type SigningKeyProvider interface {
	SigningKey() []byte
}

// TokenService mints and validates session tokens
type TokenService interface {
	IssueToken(identity *Identity) (string, time.Time, error)
	ValidateToken(token string) (*TokenClaims, error)
}

// RegistrationService drives sign-up and the registration OTP
type RegistrationService interface {
	Register(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error)
}

// LoginService composes resolution, gating, credentials, OTP and tokens
type LoginService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	RequestOTP(ctx context.Context, req LoginRequest) (*AuthResult, error)
	VerifyOTP(ctx context.Context, identifier, code, adminCode string) (*AuthResult, error)
	ChangePassword(ctx context.Context, principal Principal, current, next string) error
	Profile(ctx context.Context, principal Principal) (*Identity, error)
}

// SMSSender delivers text messages
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// EmailSender delivers email messages
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// DeliveryChannel is the transport used for an OTP
type DeliveryChannel string

const (
	ChannelEmail DeliveryChannel = "email"
	ChannelSMS   DeliveryChannel = "sms"
)

// Delivery is one OTP message waiting to be sent
type Delivery struct {
	Channel     DeliveryChannel
	Destination string
	Code        string
	ExpiresIn   time.Duration
}

// DeliveryDispatcher hands deliveries off without blocking the caller
type DeliveryDispatcher interface {
	Dispatch(ctx context.Context, delivery Delivery)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	TokenID    string    `json:"jti"`
	IdentityID uint      `json:"identity_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Store      StoreKind `json:"store"`
	IssuedAt   int64     `json:"iat"`
	ExpiresAt  int64     `json:"exp"`
}

// Principal converts verified claims into the explicit caller identity
func (c *TokenClaims) Principal() Principal {
	return Principal{
		IdentityID: c.IdentityID,
		Email:      c.Email,
		Role:       c.Role,
		Store:      c.Store,
	}
}
