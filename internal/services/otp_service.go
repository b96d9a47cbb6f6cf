package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/you/tradeauth/domain"
)

const (
	// OTPLength is the number of digits in every issued code
	OTPLength = 6
	// OTPTTL is how long an issued code stays valid
	OTPTTL    = 5 * time.Minute
)

// OTPServiceImpl implements domain.OTPService on top of a challenge store
type OTPServiceImpl struct {
	store      domain.OTPStore
	dispatcher domain.DeliveryDispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store domain.OTPStore, dispatcher domain.DeliveryDispatcher, logger *slog.Logger) *OTPServiceImpl {
	return &OTPServiceImpl{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

var _ domain.OTPService = (*OTPServiceImpl)(nil)

// Issue implements domain.OTPService. One code is generated and stored under
// every key, replacing whatever challenge the key held before.
func (s *OTPServiceImpl) Issue(ctx context.Context, keys ...string) error {
	keys = normalizeKeys(keys)
	if len(keys) == 0 {
		return fmt.Errorf("%w: an email or phone is required", domain.ErrValidation)
	}

	code, err := generateSecureCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP code: %w", err)
	}

	issuedAt := s.now()
	for _, key := range keys {
		challenge := &domain.OTPChallenge{
			Key:       key,
			Code:      code,
			IssuedAt:  issuedAt,
			ExpiresAt: issuedAt.Add(OTPTTL),
		}
		if err := s.store.Replace(ctx, challenge); err != nil {
			return err
		}
	}

	for _, key := range keys {
		s.dispatcher.Dispatch(ctx, domain.Delivery{
			Channel:     channelFor(key),
			Destination: key,
			Code:        code,
			ExpiresIn:   OTPTTL,
		})
	}

	s.logger.InfoContext(ctx, "otp issued", "keys", len(keys))
	return nil
}

// Verify implements domain.OTPService
func (s *OTPServiceImpl) Verify(ctx context.Context, key, code string) error {
	key = domain.NormalizeIdentifier(key)
	code = strings.TrimSpace(code)
	if key == "" || code == "" {
		return fmt.Errorf("%w: identifier and otp are required", domain.ErrValidation)
	}
	return s.store.Consume(ctx, key, code, s.now())
}

// generateSecureCode draws each digit uniformly from crypto/rand
func generateSecureCode() (string, error) {
	var b strings.Builder
	b.Grow(OTPLength)
	for i := 0; i < OTPLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func channelFor(key string) domain.DeliveryChannel {
	if domain.DetectIdentifier(key) == domain.IdentifierEmail {
		return domain.ChannelEmail
	}
	return domain.ChannelSMS
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = domain.NormalizeIdentifier(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
