package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/logging"
	"github.com/you/tradeauth/internal/mocks"
)

func newTokenService() *mocks.MockTokenService {
	tokenSvc := mocks.NewMockTokenService()
	tokenSvc.ValidateTokenFunc = func(token string) (*domain.TokenClaims, error) {
		switch token {
		case "buyer":
			return &domain.TokenClaims{IdentityID: 7, Role: domain.RoleBuyer, Store: domain.StoreUser}, nil
		case "admin":
			return &domain.TokenClaims{IdentityID: 1, Role: domain.RoleAdmin, Store: domain.StoreAdmin}, nil
		case "expired":
			return nil, domain.ErrTokenExpired
		case "broken":
			return nil, errors.New("keys unavailable")
		default:
			return nil, domain.ErrTokenInvalid
		}
	}
	return tokenSvc
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "missing header", expectedStatus: http.StatusUnauthorized, expectedBody: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid authorization header format"},
		{name: "expired token", header: "Bearer expired", expectedStatus: http.StatusUnauthorized, expectedBody: "Token expired"},
		{name: "invalid token", header: "Bearer garbage", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid token"},
		{name: "validation failure", header: "Bearer broken", expectedStatus: http.StatusUnauthorized, expectedBody: "Token validation failed"},
		{name: "valid token", header: "Bearer buyer", expectedStatus: http.StatusOK, expectedBody: `"store":"user"`},
		{name: "lowercase scheme", header: "bearer buyer", expectedStatus: http.StatusOK, expectedBody: `"id":7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/auth/me", NewAuthMW(newTokenService()).WithJWT(), func(c *gin.Context) {
				p, ok := PrincipalFrom(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"id": p.IdentityID, "store": p.Store})
			})

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestCasbinMW_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		token          string
		method         string
		path           string
		enforceErr     error
		expectedStatus int
	}{
		{name: "buyer reads profile", token: "buyer", method: http.MethodGet, path: "/auth/me", expectedStatus: http.StatusOK},
		{name: "buyer changes password", token: "buyer", method: http.MethodPost, path: "/auth/password", expectedStatus: http.StatusOK},
		{name: "buyer denied admin", token: "buyer", method: http.MethodGet, path: "/admin/policies", expectedStatus: http.StatusForbidden},
		{name: "admin lists policies", token: "admin", method: http.MethodGet, path: "/admin/policies", expectedStatus: http.StatusOK},
		{name: "admin deletes policy", token: "admin", method: http.MethodDelete, path: "/admin/policies", expectedStatus: http.StatusOK},
		{name: "enforcer failure", token: "buyer", method: http.MethodGet, path: "/auth/me", enforceErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enforcer := mocks.NewMockCasbinEnforcer()
			if tt.enforceErr != nil {
				enforcer.EnforceFunc = func(rvals ...interface{}) (bool, error) { return false, tt.enforceErr }
			}

			r := gin.New()
			protected := r.Group("/", NewAuthMW(newTokenService()).WithJWT(), NewCasbinMW(enforcer, logging.Discard()).Enforce())
			ok := func(c *gin.Context) { c.Status(http.StatusOK) }
			protected.GET("/auth/me", ok)
			protected.POST("/auth/password", ok)
			protected.GET("/admin/policies", ok)
			protected.DELETE("/admin/policies", ok)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCasbinMW_RequiresPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/auth/me", NewCasbinMW(mocks.NewMockCasbinEnforcer(), logging.Discard()).Enforce(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logging.NewWithWriter(&buf, "info")))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, logging.RequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := w.Header().Get(requestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())
	assert.True(t, strings.Contains(buf.String(), `"request_id":"`+generated+`"`))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}
