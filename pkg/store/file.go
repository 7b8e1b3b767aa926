package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tkarrer/deckhand/pkg/observability"
)

// FileStore is a file-based store for CLI usage.
// Each key is stored as its own file, named by the SHA-256 hash of the key
// so that arbitrary keys map to safe filenames.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, defaults to the XDG data directory
// (~/.local/share/deckhand/store/ or $XDG_DATA_HOME/deckhand/store/).
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func defaultDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "deckhand", "store"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "deckhand", "store"), nil
}

// keyPath converts a store key to a file path.
func (s *FileStore) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(s.baseDir, hex.EncodeToString(h[:])+".json")
}

// Get retrieves the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyPath(key))
	if os.IsNotExist(err) {
		observability.Store().OnGet(ctx, "file", false)
		return "", ErrNotFound
	}
	if err != nil {
		observability.Store().OnError(ctx, "file", "get", err)
		return "", fmt.Errorf("read store file: %w", err)
	}
	observability.Store().OnGet(ctx, "file", true)
	return string(data), nil
}

// Set stores value under key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.keyPath(key), []byte(value), 0o600); err != nil {
		observability.Store().OnError(ctx, "file", "set", err)
		return fmt.Errorf("write store file: %w", err)
	}
	observability.Store().OnSet(ctx, "file", len(value))
	return nil
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		observability.Store().OnError(ctx, "file", "delete", err)
		return fmt.Errorf("remove store file: %w", err)
	}
	observability.Store().OnDelete(ctx, "file")
	return nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for store files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// Clear removes every entry from the store directory.
// Returns the number of entries removed.
func (s *FileStore) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("read store dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err == nil {
			count++
		}
	}
	return count, nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
