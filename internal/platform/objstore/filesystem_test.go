package objstore

import (
	"errors"
	"testing"
)

func TestFilesystemStore_RoundTrip(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())

	payload := []byte("%PDF-1.4 fake sheet")
	if err := store.Upload(t.Context(), "sheets", "PROD/42/doc-1.pdf", payload); err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := store.Download(t.Context(), "sheets", "PROD/42/doc-1.pdf")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestFilesystemStore_MissingObject(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())

	if _, err := store.Download(t.Context(), "sheets", "nope.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStore_RejectsTraversal(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())

	if err := store.Upload(t.Context(), "sheets", "../../etc/passwd", []byte("x")); err == nil {
		t.Fatal("expected traversal rejection")
	}
}
