// Package memory provides in-memory store implementations for tests and
// single-process development runs.
package memory

import (
	"context"
	"sync"

	"github.com/pulselog-lab/pulselog/internal/core/storage"
	"github.com/pulselog-lab/pulselog/internal/fingerprint"
)

// FingerprintStore is a thread-safe in-memory fingerprint.Store.
type FingerprintStore struct {
	mu  sync.RWMutex
	fps map[string]fingerprint.Fingerprint
}

// NewFingerprintStore creates an empty in-memory fingerprint store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		fps: make(map[string]fingerprint.Fingerprint),
	}
}

// Get returns a copy of the stored fingerprint, or storage.ErrNotFound.
func (s *FingerprintStore) Get(_ context.Context, subjectID string) (*fingerprint.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fp, ok := s.fps[subjectID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := fp
	return &out, nil
}

// Upsert overwrites the fingerprint for the subject.
func (s *FingerprintStore) Upsert(_ context.Context, fp *fingerprint.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps[fp.SubjectID] = *fp
	return nil
}

// Delete removes the subject's fingerprint, if present.
func (s *FingerprintStore) Delete(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fps, subjectID)
	return nil
}
