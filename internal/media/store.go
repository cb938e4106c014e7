package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrEmptyImage          = errors.New("media: empty image payload")
	ErrUnsupportedImage    = errors.New("media: unsupported image type")
	errMissingDirectory    = errors.New("media: storage directory required")
	supportedExtensionsSet = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	}
)

// Store abstracts the external image hosting service. Uploads return a URL the
// API embeds in user and post records; the hosting mechanics are opaque to the
// callers.
type Store interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// DiskStore persists uploads under a local directory and serves them from a
// static base URL. It stands in for a hosted image service in single-node
// deployments.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore constructs a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errMissingDirectory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = "/media"
	}
	return &DiskStore{dir: dir, baseURL: base}, nil
}

// Dir returns the directory backing the store, used to mount a static route.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Upload writes the image to disk under a fresh identifier and returns its URL.
func (s *DiskStore) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	extension := strings.ToLower(filepath.Ext(filename))
	if _, ok := supportedExtensionsSet[extension]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, extension)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	name := id.String() + extension

	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	written, err := io.Copy(file, content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if written == 0 {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", ErrEmptyImage
	}

	return path.Join(s.baseURL, name), nil
}
