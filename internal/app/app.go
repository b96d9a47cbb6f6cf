package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/internal/config"
	httpx "github.com/you/tradeauth/internal/http"
	"github.com/you/tradeauth/internal/http/handlers"
	"github.com/you/tradeauth/internal/http/middleware"
	"github.com/you/tradeauth/internal/logging"
	"github.com/you/tradeauth/internal/services"
)

const shutdownTimeout = 15 * time.Second

// Run serves the API until SIGINT or SIGTERM, then shuts down gracefully
func Run(cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error("failed to close dependencies", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the HTTP router over a wired container
func NewRouter(c *Container) *gin.Engine {
	h := httpx.Handlers{
		Auth:     handlers.NewAuthHandlers(c.RegistrationSvc, c.LoginSvc, c.Logger),
		Policy:   handlers.NewPolicyHandlers(c.PolicySvc, c.Logger),
		Identity: handlers.NewIdentityHandlers(c.Identities, c.Logger),
	}
	jwtMW := middleware.NewAuthMW(c.TokenSvc)
	casbinMW := middleware.NewCasbinMW(services.NewCasbinEnforcerWrapper(c.Casbin.E), c.Logger)
	return httpx.BuildRouter(h, jwtMW, casbinMW, c.Logger)
}
