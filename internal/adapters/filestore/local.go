// Package filestore keeps uploaded member photos on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MaxFileBytes caps a single upload.
const MaxFileBytes = 5 << 20

// Errors
var (
	ErrInvalidKey = errors.New("file key must be a relative path without '..'")
	ErrTooLarge   = errors.New("file exceeds the 5 MB upload limit")
)

// LocalStore writes files below Root and serves them from URLPrefix.
type LocalStore struct {
	Root      string
	URLPrefix string
}

// NewLocalStore creates the root directory if needed.
// POST: root exists and is writable by the process
func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{Root: root, URLPrefix: urlPrefix}, nil
}

// Put writes r under key and returns the public URL.
// PRE: key is a slash-separated relative path
// POST: the file is complete on disk or absent; a partial write never remains
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, MaxFileBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > MaxFileBytes {
		return "", ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("move upload: %w", err)
	}
	return s.URLPrefix + key, nil
}

// Remove deletes the file for key. A missing file is not an error.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || path.IsAbs(key) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}
