package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/mocks"
)

func TestLoginServiceImpl_BuyerRegistrationFlow(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()

	_, err := s.register.Register(ctx, domain.RegistrationRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Phone:    "+15550001111",
		Password: "s3cret",
		Role:     "BUYER",
	})
	require.NoError(t, err)
	code := s.lastCode(t, "ada@example.com")

	_, err = s.login.VerifyOTP(ctx, "ada@example.com", wrongCode(code), "")
	assert.ErrorIs(t, err, domain.ErrOTPMismatch)

	result, err := s.login.VerifyOTP(ctx, "ada@example.com", code, "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoginIssued, result.Outcome)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.Identity.Verified)

	claims, err := s.tokens.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBuyer, claims.Role)
	assert.Equal(t, result.Identity.ID, claims.IdentityID)
	assert.Equal(t, domain.StoreUser, claims.Store)

	// the linked profile row is verified as well
	matches, err := s.registry.FindMatches(ctx, "ada@example.com", "+15550001111")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.True(t, m.Verified)
	}

	_, err = s.register.Register(ctx, domain.RegistrationRequest{Email: "ada@example.com", Password: "x", Role: "BUYER"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = s.login.VerifyOTP(ctx, "ada@example.com", code, "")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestLoginServiceImpl_PasswordLogin(t *testing.T) {
	hashed, _ := mocks.NewMockPasswordService().Hash("s3cret")

	tests := []struct {
		name     string
		identity domain.Identity
		kind     domain.StoreKind
		req      domain.LoginRequest
		wantErr  error
	}{
		{
			name:     "buyer on generic endpoint",
			kind:     domain.StoreBuyer,
			identity: domain.Identity{Email: "b@example.com", Role: domain.RoleBuyer},
			req:      domain.LoginRequest{Identifier: "b@example.com", Password: "s3cret"},
		},
		{
			name:     "seller by phone on seller endpoint",
			kind:     domain.StoreVendor,
			identity: domain.Identity{Phone: "+15550003333", Role: domain.RoleSeller},
			req:      domain.LoginRequest{Identifier: "+1 555 000 3333", Password: "s3cret", ExpectedRole: rolePtr(domain.RoleSeller)},
		},
		{
			name:     "wrong password",
			kind:     domain.StoreBuyer,
			identity: domain.Identity{Email: "b@example.com", Role: domain.RoleBuyer},
			req:      domain.LoginRequest{Identifier: "b@example.com", Password: "nope"},
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:     "role mismatch",
			kind:     domain.StoreBuyer,
			identity: domain.Identity{Email: "b@example.com", Role: domain.RoleBuyer},
			req:      domain.LoginRequest{Identifier: "b@example.com", Password: "s3cret", ExpectedRole: rolePtr(domain.RoleSeller)},
			wantErr:  domain.ErrRoleMismatch,
		},
		{
			name:     "admin without code",
			kind:     domain.StoreAdmin,
			identity: domain.Identity{Email: "root@example.com", Role: domain.RoleAdmin},
			req:      domain.LoginRequest{Identifier: "root@example.com", Password: "s3cret"},
			wantErr:  domain.ErrAdminCodeInvalid,
		},
		{
			name:     "admin with code",
			kind:     domain.StoreAdmin,
			identity: domain.Identity{Email: "root@example.com", Role: domain.RoleAdmin},
			req:      domain.LoginRequest{Identifier: "root@example.com", Password: "s3cret", AdminCode: testAdminCode, ExpectedRole: rolePtr(domain.RoleAdmin)},
		},
		{
			name:     "suspended",
			kind:     domain.StoreUser,
			identity: domain.Identity{Email: "s@example.com", Role: domain.RoleSupport, Status: domain.StatusSuspended},
			req:      domain.LoginRequest{Identifier: "s@example.com", Password: "s3cret"},
			wantErr:  domain.ErrAccountInactive,
		},
		{
			name:     "unknown identifier",
			kind:     domain.StoreUser,
			identity: domain.Identity{Email: "s@example.com", Role: domain.RoleSupport},
			req:      domain.LoginRequest{Identifier: "ghost@example.com", Password: "s3cret"},
			wantErr:  domain.ErrIdentityNotFound,
		},
		{
			name:     "blank identifier",
			kind:     domain.StoreUser,
			identity: domain.Identity{Email: "s@example.com", Role: domain.RoleSupport},
			req:      domain.LoginRequest{Password: "s3cret"},
			wantErr:  domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStack(t)
			identity := tt.identity
			identity.Credential = domain.Credential{Value: hashed, Format: domain.CredentialHashed}
			s.seedIdentity(t, tt.kind, &identity)

			result, err := s.login.Login(t.Context(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Empty(t, s.dispatcher.Deliveries())
				if !errors.Is(err, domain.ErrValidation) {
					assert.Contains(t, s.audit.EventTypes(), domain.LoginFailureEvent)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.LoginIssued, result.Outcome)

			claims, err := s.tokens.ValidateToken(result.Token)
			require.NoError(t, err)
			assert.Equal(t, identity.Role, claims.Role)
			assert.Equal(t, tt.kind, claims.Store)
		})
	}
}

func TestLoginServiceImpl_UnverifiedPasswordLogin(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()

	_, err := s.register.Register(ctx, domain.RegistrationRequest{Email: "new@example.com", Password: "pw", Role: "SELLER"})
	require.NoError(t, err)

	result, err := s.login.Login(ctx, domain.LoginRequest{Identifier: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.LoginIssued, result.Outcome)
	assert.False(t, result.Identity.Verified)
}

func TestLoginServiceImpl_OTPLogin(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	hashed, _ := s.passwords.Hash("s3cret")
	s.seedIdentity(t, domain.StoreVendor, &domain.Identity{
		Email:      "shop@example.com",
		Phone:      "+15550004444",
		Role:       domain.RoleSeller,
		Verified:   true,
		Credential: domain.Credential{Value: hashed, Format: domain.CredentialHashed},
	})

	result, err := s.login.Login(ctx, domain.LoginRequest{Identifier: "+15550004444"})
	require.NoError(t, err)
	assert.Equal(t, domain.LoginOTPPending, result.Outcome)
	assert.Empty(t, result.Token)

	deliveries := s.dispatcher.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Equal(t, domain.ChannelSMS, deliveries[0].Channel)

	// the code is bound to the identifier it was requested with
	_, err = s.login.VerifyOTP(ctx, "shop@example.com", deliveries[0].Code, "")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)

	s.clock.Advance(6 * time.Minute)
	_, err = s.login.VerifyOTP(ctx, "+15550004444", deliveries[0].Code, "")
	assert.ErrorIs(t, err, domain.ErrOTPExpired)

	_, err = s.login.RequestOTP(ctx, domain.LoginRequest{Identifier: "+15550004444"})
	require.NoError(t, err)
	verified, err := s.login.VerifyOTP(ctx, "+15550004444", s.lastCode(t, "+15550004444"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.LoginIssued, verified.Outcome)
	assert.Contains(t, s.audit.EventTypes(), domain.OTPVerifyEvent)
}

func TestLoginServiceImpl_RequestOTPChecksSuppliedPassword(t *testing.T) {
	s := newTestStack(t)
	hashed, _ := s.passwords.Hash("s3cret")
	s.seedIdentity(t, domain.StoreBuyer, &domain.Identity{
		Email:      "b@example.com",
		Role:       domain.RoleBuyer,
		Credential: domain.Credential{Value: hashed, Format: domain.CredentialHashed},
	})

	_, err := s.login.RequestOTP(t.Context(), domain.LoginRequest{Identifier: "b@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, s.dispatcher.Deliveries())

	result, err := s.login.RequestOTP(t.Context(), domain.LoginRequest{Identifier: "b@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, domain.LoginOTPPending, result.Outcome)
	assert.Len(t, s.dispatcher.Deliveries(), 1)
}

func TestLoginServiceImpl_AdminVerifyNeedsCode(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()

	_, err := s.register.Register(ctx, domain.RegistrationRequest{Email: "ops@example.com", Password: "pw", Role: "ADMIN"})
	require.NoError(t, err)
	code := s.lastCode(t, "ops@example.com")

	_, err = s.login.VerifyOTP(ctx, "ops@example.com", code, "")
	assert.ErrorIs(t, err, domain.ErrAdminCodeInvalid)

	// the failed gate left the challenge in place
	result, err := s.login.VerifyOTP(ctx, "ops@example.com", code, testAdminCode)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.Identity.Role)
}

func TestLoginServiceImpl_LegacyCredentialRehash(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	s.seedIdentity(t, domain.StoreUser, &domain.Identity{
		Email:      "old@example.com",
		Role:       domain.RoleSupport,
		Credential: domain.Credential{Value: "plain-pw", Format: domain.CredentialLegacyPlaintext},
	})

	_, err := s.login.Login(ctx, domain.LoginRequest{Identifier: "old@example.com", Password: "plain-pw"})
	require.NoError(t, err)
	assert.Contains(t, s.audit.EventTypes(), domain.CredentialRehashEvent)

	stored, err := s.registry.Resolve(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.CredentialHashed, stored.Credential.Format)
	assert.NotEqual(t, "plain-pw", stored.Credential.Value)

	_, err = s.login.Login(ctx, domain.LoginRequest{Identifier: "old@example.com", Password: "plain-pw"})
	assert.NoError(t, err)
}

func TestLoginServiceImpl_ChangePassword(t *testing.T) {
	s := newTestStack(t)
	ctx := t.Context()
	hashed, _ := s.passwords.Hash("old-pw")
	identity := s.seedIdentity(t, domain.StoreUser, &domain.Identity{
		Email:      "cto@example.com",
		Role:       domain.RoleCTO,
		Credential: domain.Credential{Value: hashed, Format: domain.CredentialHashed},
	})
	principal := domain.Principal{IdentityID: identity.ID, Email: identity.Email, Role: domain.RoleCTO, Store: domain.StoreUser}

	assert.ErrorIs(t, s.login.ChangePassword(ctx, principal, "", "new-pw"), domain.ErrValidation)
	assert.ErrorIs(t, s.login.ChangePassword(ctx, principal, "wrong", "new-pw"), domain.ErrInvalidCredentials)
	require.NoError(t, s.login.ChangePassword(ctx, principal, "old-pw", "new-pw"))

	_, err := s.login.Login(ctx, domain.LoginRequest{Identifier: "cto@example.com", Password: "old-pw"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = s.login.Login(ctx, domain.LoginRequest{Identifier: "cto@example.com", Password: "new-pw"})
	assert.NoError(t, err)
}

func TestLoginServiceImpl_Profile(t *testing.T) {
	s := newTestStack(t)
	identity := s.seedIdentity(t, domain.StoreBuyer, &domain.Identity{Email: "b@example.com", Role: domain.RoleBuyer})

	got, err := s.login.Profile(t.Context(), domain.Principal{IdentityID: identity.ID, Store: domain.StoreBuyer})
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)

	_, err = s.login.Profile(t.Context(), domain.Principal{IdentityID: identity.ID, Store: "ledger"})
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
}
