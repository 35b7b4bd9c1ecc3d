// Package storage provides the object storage backends for product images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/application/catalog"
	"github.com/ecommerce/backend/internal/infrastructure/config"
)

var _ catalog.ObjectStorage = (*S3ObjectStorage)(nil)

var errEmptyKey = errors.New("storage key is required")

// S3ObjectStorage talks to AWS S3 or any S3-compatible service (MinIO, RustFS)
type S3ObjectStorage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

type S3Option func(*S3ObjectStorage)

func WithLogger(l *zap.Logger) S3Option {
	return func(s *S3ObjectStorage) { s.logger = l }
}

// WithPresignExpiration overrides the default URL lifetime
func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3ObjectStorage) { s.presignExpiration = d }
}

// NewS3ObjectStorage builds a client from cfg. Static keys are used when set,
// otherwise the default AWS credential chain applies.
func NewS3ObjectStorage(ctx context.Context, cfg *config.StorageConfig, opts ...S3Option) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, errors.New("storage access key and secret key must be set together")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if endpoint != "" {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3ObjectStorage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = 15 * time.Minute
	}
	return s, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("creating storage bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3ObjectStorage) ttl(d time.Duration) time.Duration {
	if d <= 0 {
		return s.presignExpiration
	}
	return d
}

// PresignUpload returns a PUT URL for key
func (s *S3ObjectStorage) PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (*catalog.PresignedURL, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	expiresIn = s.ttl(expiresIn)
	input := &s3.PutObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &catalog.PresignedURL{
		URL:       req.URL,
		Method:    http.MethodPut,
		Headers:   req.SignedHeader,
		ExpiresAt: s.now().Add(expiresIn),
	}, nil
}

// PresignDownload returns a GET URL for key
func (s *S3ObjectStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (*catalog.PresignedURL, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	expiresIn = s.ttl(expiresIn)
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &catalog.PresignedURL{
		URL:       req.URL,
		Method:    http.MethodGet,
		Headers:   req.SignedHeader,
		ExpiresAt: s.now().Add(expiresIn),
	}, nil
}

// Delete removes key; deleting a missing key succeeds
func (s *S3ObjectStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *S3ObjectStorage) Bucket() string {
	return s.bucket
}
