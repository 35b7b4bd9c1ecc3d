package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional; nil disables revocation checks
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
}

// JWTAuth requires a valid, unrevoked bearer token
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Authentication required")
			return
		}

		claims, err := cfg.JWTService.Validate(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, authErrorMessage(err))
			return
		}

		if cfg.TokenBlacklist != nil && claims.ID != "" {
			revoked, err := cfg.TokenBlacklist.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				// fail open, the token signature is still valid
				log.Error("token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				abortUnauthorized(c, log, auth.ErrTokenRevoked, "Token has been revoked")
				return
			}
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth attaches claims when a valid token is present and never rejects
func OptionalJWTAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := jwtService.Validate(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)

	ctx := c.Request.Context()
	ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "Token has been revoked"
	}
	return "Invalid token"
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	logger.FromContextOr(c.Request.Context(), log).Debug("authentication rejected",
		zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetUserID returns the authenticated user's id, 0 when anonymous
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(JWTUserIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
