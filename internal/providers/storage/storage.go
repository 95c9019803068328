// Package storage keeps rendered invoice documents on local disk or in an
// S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksheermitra/backend/internal/config"
	"go.uber.org/zap"
)

// Storage stores opaque objects by key. Keys use forward slashes.
type Storage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

var (
	ErrObjectNotFound = errors.New("object_not_found")
	ErrInvalidKey     = errors.New("invalid_object_key")
)

// NewFromConfig picks the backend named by INVOICE_STORAGE.
func NewFromConfig(ctx context.Context, cfg config.Config, log *zap.Logger) (Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		if cfg.Storage.Bucket == "" {
			return nil, fmt.Errorf("storage: S3_BUCKET is required for the s3 backend")
		}
		return NewS3(ctx, S3Config{
			Bucket:   cfg.Storage.Bucket,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
		}, log)
	default:
		return NewLocal(cfg.Storage.Dir, log)
	}
}
