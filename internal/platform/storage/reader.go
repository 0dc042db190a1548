package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// DefaultMaxObjectBytes caps how much of an object Read loads into memory.
const DefaultMaxObjectBytes int64 = 4 << 20

var (
	// ErrObjectNotFound is returned when the bucket or object does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrObjectTooLarge is returned when the object exceeds the configured size cap.
	ErrObjectTooLarge = errors.New("storage: object exceeds size limit")
)

// Reader loads small configuration objects from Cloud Storage.
type Reader struct {
	client   *gcs.Client
	maxBytes int64
}

// ReaderOption customises Reader behaviour.
type ReaderOption func(*Reader)

// WithMaxObjectBytes overrides the object size cap.
func WithMaxObjectBytes(limit int64) ReaderOption {
	return func(r *Reader) {
		if limit > 0 {
			r.maxBytes = limit
		}
	}
}

// NewReader constructs a Reader backed by the provided Cloud Storage client.
func NewReader(client *gcs.Client, opts ...ReaderOption) (*Reader, error) {
	if client == nil {
		return nil, errors.New("storage reader: client is required")
	}
	reader := &Reader{client: client, maxBytes: DefaultMaxObjectBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(reader)
		}
	}
	return reader, nil
}

// Read returns the full contents of gs://bucket/object.
func (r *Reader) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if r == nil || r.client == nil {
		return nil, errors.New("storage reader: client is not initialised")
	}
	bucket = strings.TrimSpace(bucket)
	object = strings.TrimSpace(object)
	if bucket == "" || object == "" {
		return nil, errors.New("storage reader: bucket and object must be provided")
	}

	rc, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, classifyReadError(err)
	}
	defer rc.Close()

	return readAllLimited(rc, r.maxBytes)
}

func readAllLimited(src io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("storage reader: read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}

func classifyReadError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return fmt.Errorf("storage reader: open: %w", err)
}
