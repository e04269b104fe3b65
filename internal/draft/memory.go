package draft

import (
	"bytes"
	"context"
	"sync"

	"github.com/sells-group/pitchscore/internal/model"
)

// MemoryStore is a process-local draft store for single-node and dev use.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]model.Draft
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]model.Draft)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*model.Draft, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	d, ok := s.drafts[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(d)
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, d model.Draft) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[key] = clone(d)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}

// clone copies the mutable parts of d so callers never share stored bytes.
func clone(d model.Draft) model.Draft {
	d.Form = bytes.Clone(d.Form)
	if d.Tags != nil {
		d.Tags = append(model.Tags(nil), d.Tags...)
	}
	return d
}
