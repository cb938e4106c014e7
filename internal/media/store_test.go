package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreUploadReturnsServedURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}

	url, err := store.Upload(context.Background(), "portrait.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected upload error: %v", err)
	}
	if !strings.HasPrefix(url, "/media/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("unexpected url: %s", url)
	}

	stored, err := os.ReadFile(filepath.Join(store.Dir(), filepath.Base(url)))
	if err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
	if string(stored) != "jpeg-bytes" {
		t.Fatalf("unexpected file contents: %q", stored)
	}
}

func TestDiskStoreUploadRejectsUnsupportedExtension(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}

	if _, err := store.Upload(context.Background(), "payload.exe", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestDiskStoreUploadRejectsEmptyContent(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}

	if _, err := store.Upload(context.Background(), "blank.png", strings.NewReader("")); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}
