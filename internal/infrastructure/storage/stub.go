package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ecommerce/backend/internal/application/catalog"
)

var _ catalog.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage hands out unsigned URLs under BaseURL and remembers
// deleted keys. It backs development setups without a bucket, and tests.
type StubObjectStorage struct {
	BaseURL string
	TTL     time.Duration

	mu      sync.Mutex
	deleted []string
	now     func() time.Time
}

// NewStubObjectStorage creates a new stub storage that signs URLs under baseURL
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/product-images"
	}
	return &StubObjectStorage{BaseURL: strings.TrimSuffix(baseURL, "/"), TTL: 15 * time.Minute, now: time.Now}
}

func (s *StubObjectStorage) presign(method, key string, expiresIn time.Duration) (*catalog.PresignedURL, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = s.TTL
	}
	expiresAt := s.now().Add(expiresIn)
	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return &catalog.PresignedURL{
		URL:       s.BaseURL + "/" + key + "?" + q.Encode(),
		Method:    method,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *StubObjectStorage) PresignUpload(_ context.Context, key, _ string, expiresIn time.Duration) (*catalog.PresignedURL, error) {
	return s.presign(http.MethodPut, key, expiresIn)
}

func (s *StubObjectStorage) PresignDownload(_ context.Context, key string, expiresIn time.Duration) (*catalog.PresignedURL, error) {
	return s.presign(http.MethodGet, key, expiresIn)
}

func (s *StubObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

// Deleted returns the keys passed to Delete, in call order
func (s *StubObjectStorage) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}
