package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem under a root
// directory; the served URL is baseURL + "/" + path.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory blobs are stored in.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("blobstore: put %s: %w", path, err)
	}
	return s.baseURL + "/" + path, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	return f, nil
}

// resolve confines path inside the root; traversal segments are
// squashed by rooting the path before cleaning it.
func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("blobstore: invalid path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}
