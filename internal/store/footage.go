package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/your-org/vigil/internal/models"
)

// FootageStore owns the footage record document. It is the only writer of
// that document; handlers and the supervisor share one instance.
type FootageStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFootageStore(path string) (*FootageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FootageStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// List returns every footage record, newest first is not guaranteed; records
// keep their insertion order.
func (s *FootageStore) List() ([]models.Footage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock footage document: %w", err)
	}
	defer s.lock.Unlock()

	return loadDocument[models.Footage](s.path), nil
}

// Get returns the record with the given id, or nil when absent.
func (s *FootageStore) Get(id string) (*models.Footage, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Create appends a new record. ErrConflict when the id is already taken.
func (s *FootageStore) Create(f models.Footage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock footage document: %w", err)
	}
	defer s.lock.Unlock()

	records := loadDocument[models.Footage](s.path)
	for i := range records {
		if records[i].ID == f.ID {
			return ErrConflict
		}
	}

	records = append(records, f)
	return saveDocument(s.path, records)
}

// Delete removes the record and returns it so the caller can reclaim the
// files it references. ErrNotFound when absent.
func (s *FootageStore) Delete(id string) (*models.Footage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock footage document: %w", err)
	}
	defer s.lock.Unlock()

	records := loadDocument[models.Footage](s.path)
	for i := range records {
		if records[i].ID == id {
			removed := records[i]
			records = append(records[:i], records[i+1:]...)
			if err := saveDocument(s.path, records); err != nil {
				return nil, err
			}
			return &removed, nil
		}
	}
	return nil, ErrNotFound
}

// MarkCompleted applies the Completed terminal transition with the persons
// extracted from detector metadata. Returns the updated record, or nil when
// the record was deleted while processing (a tolerated race, not an error).
// A record already in a terminal state is left untouched.
func (s *FootageStore) MarkCompleted(id string, persons []models.PersonDetection) (*models.Footage, error) {
	return s.applyTerminal(id, func(f *models.Footage) {
		f.Status = models.FootageStatusCompleted
		f.AnnotatedArtifact.Persons = persons
		f.AnnotatedArtifact.Error = ""
		now := time.Now().UTC()
		f.CompletedAt = &now
	})
}

// MarkFailed applies the Failed terminal transition with the error detail.
// Same deleted-record and already-terminal semantics as MarkCompleted.
func (s *FootageStore) MarkFailed(id string, detail string) (*models.Footage, error) {
	return s.applyTerminal(id, func(f *models.Footage) {
		f.Status = models.FootageStatusFailed
		f.AnnotatedArtifact.Error = detail
	})
}

func (s *FootageStore) applyTerminal(id string, mutate func(*models.Footage)) (*models.Footage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock footage document: %w", err)
	}
	defer s.lock.Unlock()

	records := loadDocument[models.Footage](s.path)
	for i := range records {
		if records[i].ID != id {
			continue
		}
		if records[i].Status.Terminal() {
			return &records[i], nil
		}
		mutate(&records[i])
		if err := saveDocument(s.path, records); err != nil {
			return nil, err
		}
		return &records[i], nil
	}
	return nil, nil
}
