package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure S3Store implements the interface.
var _ driven.ObjectStore = (*S3Store)(nil)

// DefaultURLExpiry is how long presigned screenshot links stay valid.
const DefaultURLExpiry = 24 * time.Hour

const defaultRegion = "us-east-1"

// S3Store writes objects to an S3-compatible bucket and returns presigned GET URLs.
// The bucket is created on first use when it does not exist.
type S3Store struct {
	client   *minio.Client
	bucket   string
	region   string
	expiry   time.Duration
	initOnce sync.Once
	initErr  error
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithURLExpiry sets the lifetime of returned links.
func WithURLExpiry(d time.Duration) S3Option {
	return func(s *S3Store) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// NewS3Store creates a store from settings.
func NewS3Store(cfg domain.S3Settings, opts ...S3Option) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: s3 endpoint is required", domain.ErrInvalidInput)
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("%w: s3 access key and secret key are required", domain.ErrInvalidInput)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", domain.ErrInvalidInput)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	s := &S3Store{
		client: client,
		bucket: bucket,
		region: region,
		expiry: DefaultURLExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads data under key and returns a presigned URL for it.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: object key is required", domain.ErrInvalidInput)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
