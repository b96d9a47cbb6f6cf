package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
)

func TestOTPServiceImpl_Issue(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()

	require.NoError(t, s.otp.Issue(ctx, " Ada@Example.com ", "+15550001111", "ada@example.com"))

	deliveries := s.dispatcher.Deliveries()
	require.Len(t, deliveries, 2)
	assert.Equal(t, domain.ChannelEmail, deliveries[0].Channel)
	assert.Equal(t, "ada@example.com", deliveries[0].Destination)
	assert.Equal(t, domain.ChannelSMS, deliveries[1].Channel)
	assert.Equal(t, "+15550001111", deliveries[1].Destination)
	assert.Equal(t, deliveries[0].Code, deliveries[1].Code)
	assert.Equal(t, 5*time.Minute, deliveries[0].ExpiresIn)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), deliveries[0].Code)
}

func TestOTPServiceImpl_IssueRequiresKey(t *testing.T) {
	s := newTestStack(t)

	err := s.otp.Issue(t.Context(), "", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, s.dispatcher.Deliveries())
}

func TestOTPServiceImpl_Verify(t *testing.T) {
	const key = "ada@example.com"

	tests := []struct {
		name    string
		advance time.Duration
		code    func(issued string) string
		wantErr error
	}{
		{name: "correct code", code: func(c string) string { return c }},
		{name: "correct code at expiry", advance: 5 * time.Minute, code: func(c string) string { return c }},
		{name: "expired", advance: 5*time.Minute + time.Second, code: func(c string) string { return c }, wantErr: domain.ErrOTPExpired},
		{name: "wrong code", code: func(c string) string { return wrongCode(c) }, wantErr: domain.ErrOTPMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStack(t)
			require.NoError(t, s.otp.Issue(t.Context(), key))
			issued := s.lastCode(t, key)

			s.clock.Advance(tt.advance)
			err := s.otp.Verify(t.Context(), key, tt.code(issued))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOTPServiceImpl_SingleUse(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	const key = "+15550001111"

	require.NoError(t, s.otp.Issue(ctx, key))
	code := s.lastCode(t, key)

	require.NoError(t, s.otp.Verify(ctx, key, code))
	assert.ErrorIs(t, s.otp.Verify(ctx, key, code), domain.ErrOTPNotFound)
}

func TestOTPServiceImpl_MismatchKeepsChallenge(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	const key = "ada@example.com"

	require.NoError(t, s.otp.Issue(ctx, key))
	code := s.lastCode(t, key)

	assert.ErrorIs(t, s.otp.Verify(ctx, key, wrongCode(code)), domain.ErrOTPMismatch)
	assert.NoError(t, s.otp.Verify(ctx, key, code))
}

func TestOTPServiceImpl_ReissueReplacesCode(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	const key = "ada@example.com"

	require.NoError(t, s.otp.Issue(ctx, key))
	first := s.lastCode(t, key)
	require.NoError(t, s.otp.Issue(ctx, key))
	second := s.lastCode(t, key)

	if first != second {
		assert.ErrorIs(t, s.otp.Verify(ctx, key, first), domain.ErrOTPMismatch)
	}
	assert.NoError(t, s.otp.Verify(ctx, key, second))
}

func TestOTPServiceImpl_VerifyValidation(t *testing.T) {
	s := newTestStack(t)

	assert.ErrorIs(t, s.otp.Verify(t.Context(), "", "123456"), domain.ErrValidation)
	assert.ErrorIs(t, s.otp.Verify(t.Context(), "ada@example.com", " "), domain.ErrValidation)
	assert.ErrorIs(t, s.otp.Verify(t.Context(), "ada@example.com", "123456"), domain.ErrOTPNotFound)
}

func TestGenerateSecureCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateSecureCode()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
	}
}

// wrongCode returns a different code of the same length
func wrongCode(code string) string {
	b := []byte(code)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}
