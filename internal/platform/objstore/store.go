// Package objstore abstracts the blob store holding uploaded match sheets.
package objstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Store is the narrow contract the pipeline needs: write bytes, read them
// back. Paths are opaque to callers.
type Store interface {
	Upload(ctx context.Context, bucket string, path string, data []byte) error
	Download(ctx context.Context, bucket string, path string) ([]byte, error)
}
