package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ecommerce/backend/internal/infrastructure/cache"
)

type downStore struct{}

func (downStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (downStore) Release(context.Context, string) error { return nil }

func TestIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	status := http.StatusCreated
	r := gin.New()
	r.POST("/items", Idempotency(store, time.Minute, zaptest.NewLogger(t)), func(c *gin.Context) {
		calls++
		c.Status(status)
	})

	t.Run("without header every request runs", func(t *testing.T) {
		calls = 0
		serve(r, http.MethodPost, "/items")
		serve(r, http.MethodPost, "/items")
		assert.Equal(t, 2, calls)
	})

	t.Run("repeated key is rejected", func(t *testing.T) {
		calls = 0
		w := serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, "k-1")
		assert.Equal(t, http.StatusCreated, w.Code)

		w = serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, "k-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
		assert.Equal(t, 1, calls)
	})

	t.Run("failed request releases its key", func(t *testing.T) {
		calls = 0
		status = http.StatusBadRequest
		serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, "k-2")
		status = http.StatusCreated
		w := serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, "k-2")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("oversized key", func(t *testing.T) {
		long := make([]byte, maxIdempotencyKeyLen+1)
		for i := range long {
			long[i] = 'a'
		}
		w := serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, string(long))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIdempotencyFailsOpen(t *testing.T) {
	calls := 0
	r := gin.New()
	r.POST("/items", Idempotency(downStore{}, time.Minute, zaptest.NewLogger(t)), func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		w := serve(r, http.MethodPost, "/items", IdempotencyKeyHeader, "k")
		require.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, 2, calls)
}
