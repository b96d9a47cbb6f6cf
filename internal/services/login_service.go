package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/you/tradeauth/domain"
)

const otpPendingMessage = "A verification code has been sent. Submit it to complete sign in."

// LoginConfig toggles optional login behaviour
type LoginConfig struct {
	// RehashLegacy upgrades a plaintext credential to bcrypt after it validates
	RehashLegacy bool
}

// LoginServiceImpl implements domain.LoginService
type LoginServiceImpl struct {
	identities  domain.IdentityRepository
	gate        domain.RoleGate
	validator   domain.CredentialValidator
	passwordSvc domain.PasswordService
	otpSvc      domain.OTPService
	tokenSvc    domain.TokenService
	audit       domain.AuditLogger
	logger      *slog.Logger
	config      LoginConfig
}

// NewLoginService creates a new login service
func NewLoginService(
	identities domain.IdentityRepository,
	gate domain.RoleGate,
	validator domain.CredentialValidator,
	passwordSvc domain.PasswordService,
	otpSvc domain.OTPService,
	tokenSvc domain.TokenService,
	audit domain.AuditLogger,
	logger *slog.Logger,
	config LoginConfig,
) domain.LoginService {
	return &LoginServiceImpl{
		identities:  identities,
		gate:        gate,
		validator:   validator,
		passwordSvc: passwordSvc,
		otpSvc:      otpSvc,
		tokenSvc:    tokenSvc,
		audit:       audit,
		logger:      logger,
		config:      config,
	}
}

// Login implements domain.LoginService. A blank password selects the OTP
// branch; anything else is checked directly against the stored credential.
func (s *LoginServiceImpl) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	identifier, identity, err := s.resolveAndGate(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Password == "" {
		return s.issueChallenge(ctx, identifier, identity)
	}

	if err := s.checkPassword(ctx, identity, req.Password); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, identifier).WithIdentity(identity).WithError(err))
		return nil, err
	}

	return s.issueSession(ctx, identifier, identity, "password")
}

// RequestOTP implements domain.LoginService. A supplied password must be
// correct before a code is sent.
func (s *LoginServiceImpl) RequestOTP(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	identifier, identity, err := s.resolveAndGate(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Password != "" {
		if err := s.checkPassword(ctx, identity, req.Password); err != nil {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, identifier).WithIdentity(identity).WithError(err))
			return nil, err
		}
	}

	return s.issueChallenge(ctx, identifier, identity)
}

// VerifyOTP implements domain.LoginService. It completes both OTP login and
// registration verification.
func (s *LoginServiceImpl) VerifyOTP(ctx context.Context, identifier, code, adminCode string) (*domain.AuthResult, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	identity, err := s.identities.Resolve(ctx, identifier)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, identifier).WithError(err))
		return nil, err
	}

	// an identity that fails the gate must not consume its challenge
	if err := s.gate.Check(identity, nil, adminCode); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, identifier).WithIdentity(identity).WithError(err))
		return nil, err
	}

	if err := s.otpSvc.Verify(ctx, identifier, code); err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, identifier).WithIdentity(identity).WithError(err))
		return nil, err
	}

	if err := s.identities.MarkVerified(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to mark identity verified: %w", err)
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPVerifyEvent, identifier).WithIdentity(identity))

	return s.issueSession(ctx, identifier, identity, "otp")
}

// ChangePassword implements domain.LoginService
func (s *LoginServiceImpl) ChangePassword(ctx context.Context, principal domain.Principal, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", domain.ErrValidation)
	}

	identity, err := s.Profile(ctx, principal)
	if err != nil {
		return err
	}
	if !identity.IsActive() {
		return domain.ErrAccountInactive
	}
	if ok, _ := s.validator.Matches(current, identity.Credential); !ok {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, identity.Email).
			WithIdentity(identity).WithError(domain.ErrInvalidCredentials))
		return domain.ErrInvalidCredentials
	}

	hashed, err := s.passwordSvc.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	credential := domain.Credential{Value: hashed, Format: domain.CredentialHashed}
	if err := s.identities.UpdateCredential(ctx, identity, credential); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, identity.Email).WithIdentity(identity))
	return nil
}

// Profile implements domain.LoginService
func (s *LoginServiceImpl) Profile(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	identity, err := s.identities.ResolvePrincipal(ctx, principal)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStore) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return identity, nil
}

func (s *LoginServiceImpl) resolveAndGate(ctx context.Context, req domain.LoginRequest) (string, *domain.Identity, error) {
	identifier := domain.NormalizeIdentifier(req.Identifier)
	if identifier == "" {
		return "", nil, fmt.Errorf("%w: email or phone is required", domain.ErrValidation)
	}

	identity, err := s.identities.Resolve(ctx, identifier)
	if err != nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, identifier).WithError(err))
		return "", nil, err
	}

	if err := s.gate.Check(identity, req.ExpectedRole, req.AdminCode); err != nil {
		event := domain.NewAuditEvent(domain.LoginFailureEvent, identifier).WithIdentity(identity).WithError(err)
		if req.ExpectedRole != nil {
			event.WithMetadata("expected_role", string(*req.ExpectedRole))
		}
		s.audit.LogEvent(ctx, event)
		return "", nil, err
	}
	return identifier, identity, nil
}

// checkPassword validates the candidate and upgrades a legacy credential
func (s *LoginServiceImpl) checkPassword(ctx context.Context, identity *domain.Identity, password string) error {
	ok, needsRehash := s.validator.Matches(password, identity.Credential)
	if !ok {
		return domain.ErrInvalidCredentials
	}
	if needsRehash && s.config.RehashLegacy {
		s.rehash(ctx, identity, password)
	}
	return nil
}

// rehash failures are logged only; the login itself already succeeded
func (s *LoginServiceImpl) rehash(ctx context.Context, identity *domain.Identity, password string) {
	hashed, err := s.passwordSvc.Hash(password)
	if err == nil {
		err = s.identities.UpdateCredential(ctx, identity, domain.Credential{Value: hashed, Format: domain.CredentialHashed})
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to rehash legacy credential",
			"identity_id", identity.ID, "store", identity.SourceStore, "error", err)
		return
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.CredentialRehashEvent, identity.Email).WithIdentity(identity))
}

func (s *LoginServiceImpl) issueChallenge(ctx context.Context, identifier string, identity *domain.Identity) (*domain.AuthResult, error) {
	if err := s.otpSvc.Issue(ctx, identifier); err != nil {
		return nil, fmt.Errorf("failed to issue login code: %w", err)
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.OTPRequestEvent, identifier).WithIdentity(identity))
	return &domain.AuthResult{
		Outcome:  domain.LoginOTPPending,
		Identity: identity,
		Message:  otpPendingMessage,
	}, nil
}

func (s *LoginServiceImpl) issueSession(ctx context.Context, identifier string, identity *domain.Identity, method string) (*domain.AuthResult, error) {
	token, expiresAt, err := s.tokenSvc.IssueToken(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginEvent, identifier).
		WithIdentity(identity).
		WithMetadata("method", method))

	return &domain.AuthResult{
		Outcome:   domain.LoginIssued,
		Identity:  identity,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
