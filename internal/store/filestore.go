// Package store implements the write-once, read-many content-addressed blob
// store backing the asset pipeline. Keys are lowercase hex content hashes,
// optionally prefixed with a platform segment ("psp/") to namespace
// handheld-origin blobs.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrInvalidKey indicates a key that is not a hex hash with an optional
	// known platform prefix.
	ErrInvalidKey = errors.New("store: invalid key")
	// ErrNotFound indicates the key has no stored payload.
	ErrNotFound = errors.New("store: blob not found")
)

// FileStore lays blobs out under root as <prefix>/<hh>/<hash>, with a
// two-character fan-out directory to keep directory sizes sane at scale.
// Writes go through a temp file and rename, so a concurrent duplicate write
// of the same content-addressed key is harmless: both writers rename
// identical bytes into place.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates the root directory if needed and returns the store.
func NewFileStore(root string, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{root: root, logger: logger}, nil
}

// splitKey validates a key and returns its prefix segment and hash part.
func splitKey(key string) (prefix, hash string, err error) {
	hash = key
	if rest, found := strings.CutPrefix(key, "psp/"); found {
		prefix, hash = "psp", rest
	}
	if len(hash) != 40 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, character := range hash {
		isHex := (character >= '0' && character <= '9') || (character >= 'a' && character <= 'f')
		if !isHex {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return prefix, hash, nil
}

func (s *FileStore) pathFor(key string) (string, error) {
	prefix, hash, err := splitKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, prefix, hash[:2], hash), nil
}

// Exists reports whether the key has a stored payload.
func (s *FileStore) Exists(key string) bool {
	path, err := s.pathFor(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Get returns the full payload for a key.
func (s *FileStore) Get(key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return data, nil
}

// GetStream returns a reader over the payload. The caller owns closing it.
func (s *FileStore) GetStream(key string) (io.ReadCloser, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("store: open %s: %w", key, err)
	}
	return file, nil
}

// Put writes the payload under the key. Existing payloads are left alone:
// the key is a content hash, so the bytes on disk are already the bytes
// being written.
func (s *FileStore) Put(key string, data []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return nil
	}
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("store: create directory: %w", err)
	}

	temp, err := os.CreateTemp(directory, ".write-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tempName := temp.Name()
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("store: publish %s: %w", key, err)
	}
	s.logger.Debug("blob stored", zap.String("key", key), zap.Int("size_bytes", len(data)))
	return nil
}
