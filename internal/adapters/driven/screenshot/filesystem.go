package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.ObjectStore = (*FileStore)(nil)

// FileStore writes objects below a local directory and returns file:// URLs.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
// If dir is empty, defaults to ~/.docaudit/screenshots.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".docaudit", "screenshots")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving screenshot directory: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes data to <dir>/<key> and returns its file URL.
func (s *FileStore) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(key, "/")))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: object key %q", domain.ErrInvalidInput, key)
	}

	target := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0600); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return "file://" + filepath.ToSlash(target), nil
}
