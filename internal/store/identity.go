package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/your-org/vigil/internal/models"
)

// IdentityStore owns the NID bank document.
type IdentityStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewIdentityStore(path string) (*IdentityStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &IdentityStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *IdentityStore) List() ([]models.IdentityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock identity document: %w", err)
	}
	defer s.lock.Unlock()

	return loadDocument[models.IdentityEntry](s.path), nil
}

// FindByNID returns the entry for the given NID, or nil when unknown.
func (s *IdentityStore) FindByNID(nid string) (*models.IdentityEntry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].NID == nid {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Create inserts a new entry. ErrConflict when the NID is already registered.
func (s *IdentityStore) Create(e models.IdentityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock identity document: %w", err)
	}
	defer s.lock.Unlock()

	entries := loadDocument[models.IdentityEntry](s.path)
	for i := range entries {
		if entries[i].NID == e.NID {
			return ErrConflict
		}
	}

	entries = append(entries, e)
	return saveDocument(s.path, entries)
}

// Delete removes the entry and returns it so the caller can remove the
// stored photo. ErrNotFound when absent.
func (s *IdentityStore) Delete(nid string) (*models.IdentityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock identity document: %w", err)
	}
	defer s.lock.Unlock()

	entries := loadDocument[models.IdentityEntry](s.path)
	for i := range entries {
		if entries[i].NID == nid {
			removed := entries[i]
			entries = append(entries[:i], entries[i+1:]...)
			if err := saveDocument(s.path, entries); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, ErrNotFound
}
