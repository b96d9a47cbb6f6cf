package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/http/middleware"
)

// AuthHandlers handles registration, login and OTP requests
type AuthHandlers struct {
	registerSvc domain.RegistrationService
	loginSvc    domain.LoginService
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(registerSvc domain.RegistrationService, loginSvc domain.LoginService, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		registerSvc: registerSvc,
		loginSvc:    loginSvc,
		logger:      logger,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest represents login request. A blank password asks for an OTP.
type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Password     string `json:"password"`
	AdminCode    string `json:"adminCode"`
}

// OTPVerifyRequest represents OTP verification request
type OTPVerifyRequest struct {
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	OTP          string `json:"otp" binding:"required"`
	AdminCode    string `json:"adminCode"`
}

// ChangePasswordRequest represents a password change by the signed-in caller
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Register handles account registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.registerSvc.Register(c.Request.Context(), domain.RegistrationRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, h.logger, err, "Failed to register")
		return
	}

	status := http.StatusCreated
	if result.Status == domain.RegistrationResent {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"data": gin.H{
			"message": result.Message,
			"status":  result.Status,
		},
	})
}

// Login handles the generic login endpoint
func (h *AuthHandlers) Login(c *gin.Context) {
	h.login(c, nil)
}

// RoleLogin handles /auth/:role/login, rejecting identities of other roles
func (h *AuthHandlers) RoleLogin(c *gin.Context) {
	role, ok := domain.ParseRole(c.Param("role"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown login endpoint"})
		return
	}
	h.login(c, &role)
}

func (h *AuthHandlers) login(c *gin.Context, expected *domain.Role) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginSvc.Login(c.Request.Context(), domain.LoginRequest{
		Identifier:   req.EmailOrPhone,
		Password:     req.Password,
		AdminCode:    req.AdminCode,
		ExpectedRole: expected,
	})
	if err != nil {
		writeError(c, h.logger, err, "Login failed")
		return
	}
	writeAuthResult(c, result)
}

// RequestOTP handles an explicit request for a login code
func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginSvc.RequestOTP(c.Request.Context(), domain.LoginRequest{
		Identifier: req.EmailOrPhone,
		Password:   req.Password,
		AdminCode:  req.AdminCode,
	})
	if err != nil {
		writeError(c, h.logger, err, "Failed to send OTP")
		return
	}
	writeAuthResult(c, result)
}

// VerifyOTP completes an OTP login or a registration
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginSvc.VerifyOTP(c.Request.Context(), req.EmailOrPhone, req.OTP, req.AdminCode)
	if err != nil {
		writeError(c, h.logger, err, "OTP verification failed")
		return
	}
	writeAuthResult(c, result)
}

// Me returns the signed-in caller's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	identity, err := h.loginSvc.Profile(c.Request.Context(), principal)
	if err != nil {
		writeError(c, h.logger, err, "Failed to get user profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": identityView(identity)})
}

// ChangePassword replaces the signed-in caller's password
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.loginSvc.ChangePassword(c.Request.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.logger, err, "Failed to change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password updated"}})
}

func writeAuthResult(c *gin.Context, result *domain.AuthResult) {
	if result.Outcome == domain.LoginOTPPending {
		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{
				"status":  result.Outcome,
				"message": result.Message,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"status":       result.Outcome,
			"access_token": result.Token,
			"token_type":   "Bearer",
			"expires_at":   result.ExpiresAt.UTC().Format(time.RFC3339),
			"user":         identityView(result.Identity),
		},
	})
}

// identityView is the public summary of an identity; credentials never leave
func identityView(identity *domain.Identity) gin.H {
	return gin.H{
		"id":         identity.ID,
		"name":       identity.DisplayName,
		"email":      identity.Email,
		"phone":      identity.Phone,
		"role":       identity.Role,
		"verified":   identity.Verified,
		"status":     identity.Status,
		"store":      identity.SourceStore,
		"created_at": identity.CreatedAt,
	}
}
