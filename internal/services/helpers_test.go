package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/infrastructure/auth"
	"github.com/you/tradeauth/internal/infrastructure/repositories"
	"github.com/you/tradeauth/internal/logging"
	"github.com/you/tradeauth/internal/mocks"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testAdminCode = "let-me-in"

// setupTestDB creates an in-memory SQLite database with the identity tables
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(repositories.Models()...))
	return db
}

// testStack wires the real services over sqlite and miniredis
type testStack struct {
	db         *gorm.DB
	redis      *miniredis.Miniredis
	registry   *IdentityRegistry
	otp        *OTPServiceImpl
	dispatcher *mocks.MockDispatcher
	audit      *mocks.MockAuditLogger
	passwords  domain.PasswordService
	tokens     domain.TokenService
	register   domain.RegistrationService
	login      domain.LoginService
	clock      *testClock
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := setupTestDB(t)
	logger := logging.Discard()
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	registry := NewIdentityRegistry(repositories.NewIdentityStores(db)...).
		WithTransactions(repositories.NewTxRunner(db))
	dispatcher := mocks.NewMockDispatcher()
	otp := NewOTPService(repositories.NewOTPRepository(client, 10*time.Minute), dispatcher, logger)
	otp.now = clock.Now

	audit := mocks.NewMockAuditLogger()
	passwords := mocks.NewMockPasswordService()
	tokens := auth.NewJWTService(auth.NewStaticKeyProvider("test-secret"), "tradeauth", time.Hour)

	return &testStack{
		db:         db,
		redis:      mr,
		registry:   registry,
		otp:        otp,
		dispatcher: dispatcher,
		audit:      audit,
		passwords:  passwords,
		tokens:     tokens,
		register:   NewRegistrationService(registry, passwords, otp, audit, logger),
		login: NewLoginService(registry, NewRoleGate(testAdminCode), auth.NewCredentialValidator(passwords),
			passwords, otp, tokens, audit, logger, LoginConfig{RehashLegacy: true}),
		clock: clock,
	}
}

// lastCode returns the code most recently dispatched to destination
func (s *testStack) lastCode(t *testing.T, destination string) string {
	t.Helper()
	deliveries := s.dispatcher.Deliveries()
	for i := len(deliveries) - 1; i >= 0; i-- {
		if deliveries[i].Destination == destination {
			return deliveries[i].Code
		}
	}
	t.Fatalf("no code dispatched to %s", destination)
	return ""
}

func rolePtr(r domain.Role) *domain.Role { return &r }

// seedIdentity stores an identity directly in one store
func (s *testStack) seedIdentity(t *testing.T, kind domain.StoreKind, identity *domain.Identity) *domain.Identity {
	t.Helper()
	for _, store := range repositories.NewIdentityStores(s.db) {
		if store.Kind() == kind {
			if identity.Status == "" {
				identity.Status = domain.StatusActive
			}
			require.NoError(t, store.Save(t.Context(), identity))
			return identity
		}
	}
	t.Fatalf("unknown store %s", kind)
	return nil
}
