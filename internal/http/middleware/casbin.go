package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/domain"
)

// CasbinMW authorizes the caller's role against the request path and method
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	logger   *slog.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer, logger *slog.Logger) *CasbinMW {
	return &CasbinMW{enforcer: enforcer, logger: logger}
}

// Enforce returns the casbin authorization middleware. It must run after
// AuthMiddleware.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || principal.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID or role not found in token"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		allowed, err := mw.enforcer.Enforce(principal.Role.Subject(), path, method)
		if err != nil {
			mw.logger.ErrorContext(c.Request.Context(), "authorization check failed",
				"role", principal.Role, "path", path, "method", method, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}
		if !allowed {
			mw.logger.WarnContext(c.Request.Context(), "access denied",
				"identity_id", principal.IdentityID, "role", principal.Role, "path", path, "method", method)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		c.Next()
	}
}
