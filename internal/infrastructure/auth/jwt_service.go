package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/you/tradeauth/domain"
)

// StaticKeyProvider serves a signing key loaded once from configuration
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a key provider for a fixed secret
func NewStaticKeyProvider(secret string) *StaticKeyProvider {
	return &StaticKeyProvider{key: []byte(secret)}
}

// SigningKey implements domain.SigningKeyProvider
func (p *StaticKeyProvider) SigningKey() []byte {
	return p.key
}

// sessionClaims is the JWT body of a session token
type sessionClaims struct {
	IdentityID uint             `json:"identity_id"`
	Email      string           `json:"email,omitempty"`
	Role       domain.Role      `json:"role"`
	Store      domain.StoreKind `json:"store"`
	jwt.RegisteredClaims
}

// JWTServiceImpl implements domain.TokenService
type JWTServiceImpl struct {
	keys   domain.SigningKeyProvider
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(keys domain.SigningKeyProvider, issuer string, ttl time.Duration) domain.TokenService {
	return &JWTServiceImpl{
		keys:   keys,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken implements domain.TokenService
func (j *JWTServiceImpl) IssueToken(identity *domain.Identity) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)
	claims := sessionClaims{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Role:       identity.Role,
		Store:      identity.SourceStore,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.keys.SigningKey())
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateToken(tokenString string) (*domain.TokenClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.keys.SigningKey(), nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, domain.ErrTokenMalformed
		default:
			return nil, domain.ErrTokenInvalid
		}
	}

	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	if claims.IdentityID == 0 || claims.Role == "" || claims.IssuedAt == nil {
		return nil, domain.ErrTokenMalformed
	}

	return &domain.TokenClaims{
		TokenID:    claims.ID,
		IdentityID: claims.IdentityID,
		Email:      claims.Email,
		Role:       claims.Role,
		Store:      claims.Store,
		IssuedAt:   claims.IssuedAt.Unix(),
		ExpiresAt:  claims.ExpiresAt.Unix(),
	}, nil
}
