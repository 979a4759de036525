package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"aicars/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	best        *model.Brain
	runs        map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.best = nil
	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveBestBrain(_ context.Context, brain model.Brain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	stored := brain.Clone()
	stamp(&stored.VersionedRecord)
	s.best = &stored
	return nil
}

func (s *MemoryStore) GetBestBrain(_ context.Context) (model.Brain, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Brain{}, false, errNotInitialized
	}
	if s.best == nil {
		return model.Brain{}, false, nil
	}
	return s.best.Clone(), true, nil
}

func (s *MemoryStore) DeleteBestBrain(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.best = nil
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	stored := run.Clone()
	stamp(&stored.VersionedRecord)
	s.runs[run.ID] = stored
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.RunRecord{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return run.Clone(), true, nil
}

// ListRuns returns every run ordered by creation time, then id.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC < out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
