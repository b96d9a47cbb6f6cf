package auth

import (
	"crypto/subtle"

	"github.com/you/tradeauth/domain"
)

// CredentialValidatorImpl implements domain.CredentialValidator
type CredentialValidatorImpl struct {
	passwords domain.PasswordService
}

// NewCredentialValidator creates a validator that accepts bcrypt hashes and
// legacy plaintext rows
func NewCredentialValidator(passwords domain.PasswordService) domain.CredentialValidator {
	return &CredentialValidatorImpl{passwords: passwords}
}

// Matches implements domain.CredentialValidator. needsRehash is only ever
// true for a successful match against a plaintext row.
func (v *CredentialValidatorImpl) Matches(candidate string, stored domain.Credential) (bool, bool) {
	if candidate == "" || stored.Value == "" {
		return false, false
	}

	switch stored.Format {
	case domain.CredentialHashed:
		return v.passwords.Verify(stored.Value, candidate), false
	case domain.CredentialLegacyPlaintext:
		ok := subtle.ConstantTimeCompare([]byte(stored.Value), []byte(candidate)) == 1
		return ok, ok
	default:
		return false, false
	}
}
