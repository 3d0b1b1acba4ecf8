package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is the persisted form of a bound source session. It lets a
// session be restored across restarts.
type Record struct {
	Actor      string    `json:"actor"`
	Permission string    `json:"permission"`
	BoundAt    time.Time `json:"bound_at"`
}

// Store persists the bound source session.
type Store interface {
	// Load returns the persisted record, or nil if there is none.
	Load() (*Record, error)

	// Save persists rec, replacing any previous record.
	Save(rec *Record) error

	// Clear removes the persisted record.
	Clear() error
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStore creates a file-based session store.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
	}
}

// Load returns the persisted record, or nil if the file does not exist.
func (s *FileStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if rec.Actor == "" {
		return nil, nil
	}

	return &rec, nil
}

// Save writes rec to the file.
func (s *FileStore) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	// Write to a temp file first so a crash never leaves a torn record.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return os.Rename(tmp, s.filePath)
}

// Clear deletes the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	return nil
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	rec *Record
	mu  sync.Mutex
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored record.
func (s *MemoryStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		return nil, nil
	}
	rec := *s.rec

	return &rec, nil
}

// Save stores a copy of rec.
func (s *MemoryStore) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.rec = &cp

	return nil
}

// Clear drops the stored record.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = nil

	return nil
}
