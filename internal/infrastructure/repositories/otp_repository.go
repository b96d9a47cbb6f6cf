package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/tradeauth/domain"
)

// consumeOTPLua checks and burns a challenge in one step.
// KEYS[1] = challenge key
// ARGV[1] = submitted code
// ARGV[2] = current unix time in milliseconds
//
// Returns 1 on success or an error reply: "not_found", "expired", "mismatch".
// A mismatch leaves the challenge in place so the caller can retry.
var consumeOTPLua = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'code', 'expires_at')
local code = fields[1]
local expiresAt = tonumber(fields[2])
if not code or not expiresAt then
  return {err='not_found'}
end

if tonumber(ARGV[2]) > expiresAt then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if code ~= ARGV[1] then
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return 1
`)

// OTPRepositoryImpl implements domain.OTPStore using Redis hashes
type OTPRepositoryImpl struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewOTPRepository creates a new OTP challenge store. Records outlive their
// expiry by retention so a late verification reports expiry instead of absence.
func NewOTPRepository(client redis.UniversalClient, retention time.Duration) domain.OTPStore {
	return &OTPRepositoryImpl{
		client:    client,
		prefix:    "otp:",
		retention: retention,
	}
}

// Replace implements domain.OTPStore. Any earlier challenge for the key is
// dropped in the same transaction.
func (r *OTPRepositoryImpl) Replace(ctx context.Context, challenge *domain.OTPChallenge) error {
	key := r.prefix + challenge.Key
	ttl := challenge.ExpiresAt.Sub(challenge.IssuedAt) + r.retention
	if ttl <= 0 {
		return fmt.Errorf("%w: challenge expires before it is issued", domain.ErrValidation)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"code", challenge.Code,
			"issued_at", challenge.IssuedAt.UnixMilli(),
			"expires_at", challenge.ExpiresAt.UnixMilli(),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp challenge: %w", err)
	}
	return nil
}

// Consume implements domain.OTPStore
func (r *OTPRepositoryImpl) Consume(ctx context.Context, key, code string, now time.Time) error {
	err := consumeOTPLua.Run(ctx, r.client, []string{r.prefix + key}, code, now.UnixMilli()).Err()
	if err == nil {
		return nil
	}

	switch err.Error() {
	case "not_found":
		return domain.ErrOTPNotFound
	case "expired":
		return domain.ErrOTPExpired
	case "mismatch":
		return domain.ErrOTPMismatch
	default:
		return fmt.Errorf("failed to consume otp challenge: %w", err)
	}
}
