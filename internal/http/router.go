package httpx

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/internal/http/handlers"
	"github.com/you/tradeauth/internal/http/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth     *handlers.AuthHandlers
	Policy   *handlers.PolicyHandlers
	Identity *handlers.IdentityHandlers
}

func BuildRouter(h Handlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/login/otp", h.Auth.RequestOTP)
	auth.POST("/otp/verify", h.Auth.VerifyOTP)
	auth.POST("/:role/login", h.Auth.RoleLogin)

	v := r.Group("/auth").Use(jwtmw.WithJWT(), cb.Enforce())
	v.GET("/me", h.Auth.Me)
	v.POST("/password", h.Auth.ChangePassword)

	adm := r.Group("/admin").Use(jwtmw.WithJWT(), cb.Enforce())
	adm.GET("/identities", h.Identity.Lookup)
	adm.GET("/policies", h.Policy.List)
	adm.POST("/policies", h.Policy.Add)
	adm.DELETE("/policies", h.Policy.Remove)

	return r
}
