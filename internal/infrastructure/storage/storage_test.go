package storage

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ecommerce/backend/internal/infrastructure/config"
)

func s3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:           true,
		Endpoint:          "http://localhost:9000",
		Region:            "eu-west-1",
		Bucket:            "product-images",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3ObjectStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		assert.ErrorContains(t, err, "configuration is required")

		cfg := s3Config()
		cfg.Bucket = ""
		_, err = NewS3ObjectStorage(ctx, cfg)
		assert.ErrorContains(t, err, "bucket is required")

		cfg = s3Config()
		cfg.SecretKey = ""
		_, err = NewS3ObjectStorage(ctx, cfg)
		assert.ErrorContains(t, err, "set together")
	})

	t.Run("options", func(t *testing.T) {
		s, err := NewS3ObjectStorage(ctx, s3Config(), WithLogger(zaptest.NewLogger(t)), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "product-images", s.Bucket())
		assert.Equal(t, time.Hour, s.presignExpiration)
	})

	t.Run("default expiration", func(t *testing.T) {
		cfg := s3Config()
		cfg.PresignExpiration = 0
		s, err := NewS3ObjectStorage(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})
}

func TestS3ObjectStorage_Presign(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3ObjectStorage(ctx, s3Config())
	require.NoError(t, err)
	fixed := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	t.Run("upload", func(t *testing.T) {
		p, err := s.PresignUpload(ctx, "products/1/lamp.png", "image/png", 0)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, p.Method)
		assert.Equal(t, fixed.Add(10*time.Minute), p.ExpiresAt)

		u, err := url.Parse(p.URL)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.Equal(t, "/product-images/products/1/lamp.png", u.Path)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	})

	t.Run("download with explicit ttl", func(t *testing.T) {
		p, err := s.PresignDownload(ctx, "products/1/lamp.png", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, p.Method)

		u, err := url.Parse(p.URL)
		require.NoError(t, err)
		assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := s.PresignUpload(ctx, "", "", 0)
		assert.ErrorIs(t, err, errEmptyKey)
		_, err = s.PresignDownload(ctx, "", 0)
		assert.ErrorIs(t, err, errEmptyKey)
		assert.ErrorIs(t, s.Delete(ctx, ""), errEmptyKey)
	})
}

func TestStubObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewStubObjectStorage("https://cdn.example.com/")
	fixed := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	up, err := s.PresignUpload(ctx, "products/1/a.png", "image/png", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/1/a.png?expires=2026-06-01T08%3A15%3A00Z", up.URL)
	assert.Equal(t, http.MethodPut, up.Method)

	down, err := s.PresignDownload(ctx, "products/1/a.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Hour), down.ExpiresAt)

	require.NoError(t, s.Delete(ctx, "products/1/a.png"))
	assert.Equal(t, []string{"products/1/a.png"}, s.Deleted())

	_, err = s.PresignUpload(ctx, "", "", 0)
	assert.ErrorIs(t, err, errEmptyKey)
}
