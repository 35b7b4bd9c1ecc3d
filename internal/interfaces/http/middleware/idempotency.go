package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader lets clients retry a create without duplicating it
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// IdempotencyStore holds claimed keys until they expire or are released
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a repeated Idempotency-Key with 409 while the first
// request's claim is held. Keys are scoped to the caller and route. A failed
// request releases its key so the client may retry. Requests without the
// header pass through, and so does everything when the store is unreachable.
func Idempotency(store IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(IdempotencyKeyHeader)
		if store == nil || ttl <= 0 || raw == "" {
			c.Next()
			return
		}
		if len(raw) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		key := strconv.FormatUint(uint64(GetUserID(c)), 10) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + raw
		claimed, err := store.Claim(ctx, key, ttl)
		if err != nil {
			logger.FromContextOr(ctx, log).Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicate, "A request with this Idempotency-Key was already processed", GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.FromContextOr(ctx, log).Warn("release idempotency key", zap.Error(err))
			}
		}
	}
}
