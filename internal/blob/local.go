package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images on the local filesystem, for development without a bucket
type LocalStore struct {
	root          string
	publicBaseURL string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local blob: create root: %w", err)
	}
	return &LocalStore{root: root, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

// Root is the directory files are written to
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(path string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("local blob: path %q escapes root", path)
	}
	return full, nil
}

// Upload writes data under path
func (s *LocalStore) Upload(_ context.Context, path string, _ string, data io.Reader) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("local blob: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("local blob: create: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("local blob: write: %w", err)
	}
	return f.Close()
}

// Delete removes the file at path. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local blob: delete: %w", err)
	}
	return nil
}

// PublicURL returns the URL the static file route serves path under
func (s *LocalStore) PublicURL(path string) string {
	return s.publicBaseURL + "/" + path
}
