package gcsio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectNotFound is returned when a gs:// URI points at an object
// that does not exist in the bucket.
var ErrObjectNotFound = errors.New("gcsio: object not found")

// IsGCSURI reports whether the location names a Cloud Storage object
// rather than a path on the local filesystem.
func IsGCSURI(location string) bool {
	return strings.HasPrefix(location, "gs://")
}

// Filename extracts the base filename from a gs:// URI or local path.
// e.g. "gs://bucket/runs/input.csv" -> "input.csv".
func Filename(location string) string {
	if !IsGCSURI(location) {
		return filepath.Base(location)
	}
	trimmed := strings.TrimPrefix(location, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

func splitURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	return parts[0], parts[1], nil
}

// Fetch reads the bytes at the given location. A gs:// URI goes through
// Cloud Storage with Application Default Credentials; anything else is
// read from the local filesystem.
func Fetch(ctx context.Context, location string) ([]byte, error) {
	if !IsGCSURI(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read local file %q: %w", location, err)
		}
		return data, nil
	}

	bucket, object, err := splitURI(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.Is(err, storage.ErrObjectNotExist) ||
			(errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, location)
		}
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Write stores data at the given location. A gs:// URI is uploaded to
// Cloud Storage; a local path has its parent directory created first.
func Write(ctx context.Context, location string, data []byte) error {
	if !IsGCSURI(location) {
		if dir := filepath.Dir(location); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create directory %q: %w", dir, err)
			}
		}
		if err := os.WriteFile(location, data, 0o644); err != nil {
			return fmt.Errorf("write local file %q: %w", location, err)
		}
		return nil
	}

	bucket, object, err := splitURI(location)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy bytes to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload to %s: %w", location, err)
	}
	return nil
}

// Service is the concrete storage implementation used by the pipeline.
// It dispatches between Cloud Storage and the local filesystem per URI.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Fetch(ctx context.Context, location string) ([]byte, error) {
	return Fetch(ctx, location)
}

func (s *Service) Write(ctx context.Context, location string, data []byte) error {
	return Write(ctx, location, data)
}

func (s *Service) Filename(location string) string {
	return Filename(location)
}
