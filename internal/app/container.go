package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/config"
	"github.com/you/tradeauth/internal/infrastructure/auth"
	"github.com/you/tradeauth/internal/infrastructure/database"
	"github.com/you/tradeauth/internal/infrastructure/notifications"
	"github.com/you/tradeauth/internal/infrastructure/repositories"
	"github.com/you/tradeauth/internal/logging"
	"github.com/you/tradeauth/internal/services"
	"gorm.io/gorm"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient redis.UniversalClient
	Casbin      *auth.CasbinService
	Dispatcher  *notifications.Dispatcher

	// Repositories
	Identities domain.IdentityRepository
	OTPStore   domain.OTPStore

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	OTPSvc          domain.OTPService
	RegistrationSvc domain.RegistrationService
	LoginSvc        domain.LoginService
	PolicySvc       domain.PolicyService
	Audit           domain.AuditLogger
}

// NewContainer connects to postgres and redis, migrates the identity tables
// and wires every service
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	db, err := database.Open(cfg.DSN, database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		Debug:        cfg.DBDebug,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	c, err := newContainer(cfg, logger, db, rdb.Client)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// newContainer wires services over already opened connections
func newContainer(cfg *config.Config, logger *slog.Logger, db *gorm.DB, rdb redis.UniversalClient) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, DB: db, RedisClient: rdb}

	if err := c.initCasbin(); err != nil {
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	return c, nil
}

func (c *Container) initCasbin() error {
	cas, err := auth.NewCasbinService(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	seeded, err := cas.SeedDefaults()
	if err != nil {
		return err
	}
	if seeded {
		c.Logger.Info("casbin: seeded default policies")
	}
	c.Casbin = cas
	return nil
}

func (c *Container) initRepositories() {
	c.Identities = services.NewIdentityRegistry(repositories.NewIdentityStores(c.DB)...).
		WithTransactions(repositories.NewTxRunner(c.DB))
	c.OTPStore = repositories.NewOTPRepository(c.RedisClient, c.Config.OTPRetention)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.Audit = logging.NewAuditLogger(c.Logger)
	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(auth.NewStaticKeyProvider(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)

	sms := notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, c.Logger)
	email := notifications.NewSMTPService(notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, c.Logger)
	c.Dispatcher = notifications.NewDispatcher(notifications.DispatcherConfig{
		Workers:    cfg.DeliveryWorkers,
		BufferSize: cfg.DeliveryBuffer,
	}, sms, email, c.Logger)

	c.OTPSvc = services.NewOTPService(c.OTPStore, c.Dispatcher, c.Logger)

	c.PolicySvc = services.NewPolicyService(c.Casbin.E)
	c.RegistrationSvc = services.NewRegistrationService(c.Identities, c.PasswordSvc, c.OTPSvc, c.Audit, c.Logger)
	c.LoginSvc = services.NewLoginService(
		c.Identities,
		services.NewRoleGate(cfg.AdminAccessCode),
		auth.NewCredentialValidator(c.PasswordSvc),
		c.PasswordSvc,
		c.OTPSvc,
		c.TokenSvc,
		c.Audit,
		c.Logger,
		services.LoginConfig{RehashLegacy: cfg.RehashLegacy},
	)
}

// Close drains pending deliveries and closes all connections
func (c *Container) Close() error {
	if c.Dispatcher != nil {
		c.Dispatcher.Close()
	}

	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
