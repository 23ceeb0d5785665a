package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps runs and metrics in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]Run
	metrics map[string][]Metric
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]Run)
	s.metrics = make(map[string][]Metric)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *MemoryStore) AppendMetrics(_ context.Context, runID string, metrics []Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics[runID] = append(s.metrics[runID], metrics...)
	return nil
}

func (s *MemoryStore) GetMetrics(_ context.Context, runID string) ([]Metric, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics, ok := s.metrics[runID]
	if !ok {
		return nil, false, nil
	}
	out := make([]Metric, len(metrics))
	copy(out, metrics)
	return out, true, nil
}
