// Package gcs implements the location file BlobStore on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/SscSPs/supply_chain_app/internal/apperrors"
	portsstorage "github.com/SscSPs/supply_chain_app/internal/core/ports/storage"
)

// BlobStore reads and writes objects in one bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

var _ portsstorage.BlobStore = (*BlobStore)(nil)

// ClientOptions builds client options from inline JSON credentials or a
// credentials file path. With neither set the client uses application
// default credentials.
func ClientOptions(credentialsJSON, credentialsFile string) []option.ClientOption {
	creds := strings.TrimSpace(credentialsJSON)
	if creds == "" {
		creds = strings.TrimSpace(credentialsFile)
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// NewBlobStore opens a storage client for bucket.
func NewBlobStore(ctx context.Context, bucket string, logger *slog.Logger, opts ...option.ClientOption) (*BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", apperrors.ErrValidation)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &BlobStore{
		client: client,
		bucket: bucket,
		logger: logger.With("service", "gcs", "bucket", bucket),
	}, nil
}

// Exists reports whether the object is present. A missing bucket is an error,
// a missing object is not.
func (b *BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.Bucket(b.bucket).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat gs://%s/%s: %w", b.bucket, path, err)
	}
	return true, nil
}

// Open returns a reader over the object. The caller closes it.
func (b *BlobStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := b.client.Bucket(b.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("open gs://%s/%s: %w", b.bucket, path, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", b.bucket, path, err)
	}
	return r, nil
}

// Save uploads data to the object, replacing it.
func (b *BlobStore) Save(ctx context.Context, path string, data []byte) error {
	w := b.client.Bucket(b.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentTypeForPath(path)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", b.bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", b.bucket, path, err)
	}
	b.logger.Debug("Object saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// Close releases the storage client.
func (b *BlobStore) Close() error {
	return b.client.Close()
}

func contentTypeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".geojson"), strings.HasSuffix(path, ".json"):
		return "application/geo+json"
	case strings.HasSuffix(path, ".zip"):
		return "application/zip"
	case strings.HasSuffix(path, ".csv"):
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
