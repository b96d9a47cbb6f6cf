package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/you/tradeauth/domain"
)

const (
	pendingMessage = "Registration received. Enter the verification code sent to your email or phone."
	resentMessage  = "This account is awaiting verification. A new verification code has been sent."
	phoneInUse     = "An unverified account already uses this phone number. A new verification code has been sent to that account's contacts."
)

// RegistrationServiceImpl implements domain.RegistrationService
type RegistrationServiceImpl struct {
	identities  domain.IdentityRepository
	passwordSvc domain.PasswordService
	otpSvc      domain.OTPService
	audit       domain.AuditLogger
	logger      *slog.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	identities domain.IdentityRepository,
	passwordSvc domain.PasswordService,
	otpSvc domain.OTPService,
	audit domain.AuditLogger,
	logger *slog.Logger,
) domain.RegistrationService {
	return &RegistrationServiceImpl{
		identities:  identities,
		passwordSvc: passwordSvc,
		otpSvc:      otpSvc,
		audit:       audit,
		logger:      logger,
	}
}

// Register implements domain.RegistrationService
func (s *RegistrationServiceImpl) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error) {
	email := domain.NormalizeIdentifier(req.Email)
	phone := domain.NormalizeIdentifier(req.Phone)

	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	if domain.DetectIdentifier(email) != domain.IdentifierEmail {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if phone != "" && domain.DetectIdentifier(phone) != domain.IdentifierPhone {
		return nil, fmt.Errorf("%w: invalid phone number", domain.ErrValidation)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, req.Role)
	}

	matches, err := s.identities.FindMatches(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	for _, m := range matches {
		if m.Verified {
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.IdentityRegisteredEvent, email).
				WithIdentity(m).WithError(domain.ErrAlreadyExists))
			return nil, domain.ErrAlreadyExists
		}
	}
	// an unverified match is resumed instead of registering a second account,
	// even when it was found by phone alone
	if len(matches) > 0 {
		return s.resend(ctx, email, matches[0])
	}

	hashed, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.identities.Create(ctx, role, &domain.Identity{
		Email:       email,
		Phone:       phone,
		Credential:  domain.Credential{Value: hashed, Format: domain.CredentialHashed},
		DisplayName: strings.TrimSpace(req.Name),
		Role:        role,
		Status:      domain.StatusActive,
		Verified:    false,
	})
	if err != nil {
		return nil, err
	}

	if err := s.otpSvc.Issue(ctx, created.Contacts()...); err != nil {
		return nil, fmt.Errorf("failed to issue verification code: %w", err)
	}

	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.IdentityRegisteredEvent, email).
		WithIdentity(created).
		WithMetadata("role", string(role)))
	s.logger.InfoContext(ctx, "identity registered", "identity_id", created.ID, "store", created.SourceStore, "role", role)

	return &domain.RegistrationResult{
		Status:   domain.RegistrationPending,
		Message:  pendingMessage,
		Identity: created,
	}, nil
}

// resend re-issues the verification code of an unverified account
func (s *RegistrationServiceImpl) resend(ctx context.Context, email string, existing *domain.Identity) (*domain.RegistrationResult, error) {
	if err := s.otpSvc.Issue(ctx, existing.Contacts()...); err != nil {
		return nil, fmt.Errorf("failed to reissue verification code: %w", err)
	}

	message := resentMessage
	if existing.Email != email {
		message = phoneInUse
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RegistrationResentEvent, email).WithIdentity(existing))

	return &domain.RegistrationResult{
		Status:   domain.RegistrationResent,
		Message:  message,
		Identity: existing,
	}, nil
}
