package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordServiceImpl(t *testing.T) {
	svc := NewPasswordServiceWithCost(bcrypt.MinCost)

	hashed, err := svc.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hashed)
	assert.Equal(t, domain.CredentialHashed, domain.ClassifyCredential(hashed))

	assert.True(t, svc.Verify(hashed, "s3cret!"))
	assert.False(t, svc.Verify(hashed, "wrong"))
	assert.False(t, svc.Verify("not-a-hash", "s3cret!"))
}

func TestCredentialValidatorImpl_Matches(t *testing.T) {
	passwords := NewPasswordServiceWithCost(bcrypt.MinCost)
	hashed, err := passwords.Hash("s3cret!")
	require.NoError(t, err)

	validator := NewCredentialValidator(passwords)

	tests := []struct {
		name           string
		candidate      string
		stored         domain.Credential
		expectedOK     bool
		expectedRehash bool
	}{
		{
			name:       "hashed match",
			candidate:  "s3cret!",
			stored:     domain.Credential{Value: hashed, Format: domain.CredentialHashed},
			expectedOK: true,
		},
		{
			name:       "hashed mismatch",
			candidate:  "nope",
			stored:     domain.Credential{Value: hashed, Format: domain.CredentialHashed},
			expectedOK: false,
		},
		{
			name:           "legacy plaintext match asks for rehash",
			candidate:      "hunter2",
			stored:         domain.Credential{Value: "hunter2", Format: domain.CredentialLegacyPlaintext},
			expectedOK:     true,
			expectedRehash: true,
		},
		{
			name:       "legacy plaintext mismatch",
			candidate:  "hunter3",
			stored:     domain.Credential{Value: "hunter2", Format: domain.CredentialLegacyPlaintext},
			expectedOK: false,
		},
		{
			name:       "hash text is not accepted as a plaintext password",
			candidate:  hashed,
			stored:     domain.Credential{Value: hashed, Format: domain.CredentialHashed},
			expectedOK: false,
		},
		{
			name:       "empty candidate",
			candidate:  "",
			stored:     domain.Credential{Value: "", Format: domain.CredentialLegacyPlaintext},
			expectedOK: false,
		},
		{
			name:       "unknown format",
			candidate:  "hunter2",
			stored:     domain.Credential{Value: "hunter2", Format: "ROT13"},
			expectedOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, rehash := validator.Matches(tt.candidate, tt.stored)
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedRehash, rehash)
		})
	}
}
