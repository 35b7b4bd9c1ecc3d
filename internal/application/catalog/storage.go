package catalog

import (
	"context"
	"net/http"
	"time"
)

// ObjectStorage issues short-lived URLs for product image objects
type ObjectStorage interface {
	// PresignUpload returns a URL the client PUTs the object to.
	// A zero expiresIn selects the backend default.
	PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (*PresignedURL, error)
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (*PresignedURL, error)
	Delete(ctx context.Context, key string) error
}

// PresignedURL is a signed request the client performs directly against storage
type PresignedURL struct {
	URL       string      `json:"url"`
	Method    string      `json:"method"`
	Headers   http.Header `json:"headers,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}
