package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes uploads below dir; they are served under prefix
type LocalStorage struct {
	dir    string
	prefix string
}

// NewLocalStorage creates dir if needed
func NewLocalStorage(dir, prefix string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

// Save writes body to a new file and returns its public path
func (s *LocalStorage) Save(_ context.Context, folder string, body io.Reader) (string, error) {
	key, data, _, err := sniff(folder, body)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return s.prefix + "/" + key, nil
}

// Delete removes the file behind url if it lives under this storage
func (s *LocalStorage) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.prefix+"/")
	if !ok || key == "" {
		return nil
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

var _ ImageStorage = (*LocalStorage)(nil)
