package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the public claims of an access token
type Claims struct {
	jwt.RegisteredClaims
	UserID         uint   `json:"user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
	OrganizationID *uint  `json:"organization_id,omitempty"`
}

// Identity is the subject a token is issued for
type Identity struct {
	UserID         uint
	Email          string
	FirstName      string
	LastName       string
	Role           string
	OrganizationID *uint
}

// Token is a signed access token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"` // Bearer
}

// JWTService signs and validates HMAC access tokens
type JWTService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	expiration time.Duration
	issuer     string
	now        func() time.Time
}

// NewJWTService creates a JWT service. Only the HMAC family is accepted.
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "HS256", "":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		method:     method,
		expiration: cfg.Expiration,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of s that reads the time from now
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs an access token for id
func (s *JWTService) Issue(id Identity) (*Token, error) {
	if id.UserID == 0 {
		return nil, ErrMissingUserID
	}
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprint(id.UserID),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:         id.UserID,
		Email:          id.Email,
		FirstName:      id.FirstName,
		LastName:       id.LastName,
		Role:           id.Role,
		OrganizationID: id.OrganizationID,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// Validate parses tokenString and returns its claims
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != s.method.Alg() {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == 0 {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Expiration returns the access token lifetime
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// Identity returns the subject carried by the claims
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:         c.UserID,
		Email:          c.Email,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
	}
}

// IssuedAtTime returns the issued-at time, zero when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt != nil {
		return c.IssuedAt.Time
	}
	return time.Time{}
}

// RemainingTTL returns the time left until expiry as seen at now
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
