package domain

import "errors"

// Identity errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrAlreadyExists      = errors.New("account already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrUnknownStore       = errors.New("unknown identity store")
)

// Role gate errors
var (
	ErrRoleMismatch     = errors.New("role does not match this login endpoint")
	ErrAdminCodeInvalid = errors.New("invalid admin access code")
)

// OTP errors
var (
	ErrOTPNotFound = errors.New("otp not found")
	ErrOTPExpired  = errors.New("otp has expired")
	ErrOTPMismatch = errors.New("invalid otp code")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Authorization errors
var (
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrInsufficientRole = errors.New("insufficient role permissions")
)

// IsUserFacing reports whether err belongs to the taxonomy returned to callers
// as a terminal failure rather than an internal error
func IsUserFacing(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrIdentityNotFound, ErrAlreadyExists, ErrInvalidCredentials,
		ErrAccountInactive, ErrRoleMismatch, ErrAdminCodeInvalid,
		ErrOTPNotFound, ErrOTPExpired, ErrOTPMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
