package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore keeps objects under root/<bucket>/<path>. Good enough
// for single-node deployments; swap the Store implementation for anything
// bigger.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) Upload(ctx context.Context, bucket string, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

func (s *FilesystemStore) Download(ctx context.Context, bucket string, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// resolve rejects traversal outside the store root.
func (s *FilesystemStore) resolve(bucket string, path string) (string, error) {
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("bucket and path are required")
	}
	full := filepath.Join(s.root, filepath.Clean(bucket), filepath.Clean(path))
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes store root")
	}
	return full, nil
}
