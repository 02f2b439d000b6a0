package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps analyses in process. It backs the API when no database
// is configured; everything is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	analyses map[uuid.UUID]*Analysis
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{analyses: make(map[uuid.UUID]*Analysis), now: time.Now}
}

func (s *MemoryStore) CreateAnalysis(_ context.Context, a *Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.analyses[a.ID] = copyAnalysis(a)
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id uuid.UUID) (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, nil
	}
	return copyAnalysis(a), nil
}

func (s *MemoryStore) ListAnalyses(_ context.Context, filter AnalysisFilter) ([]*Analysis, error) {
	s.mu.RLock()
	var out []*Analysis
	for _, a := range s.analyses {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, copyAnalysis(a))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateAnalysis(_ context.Context, a *Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.analyses[a.ID]
	if !ok {
		return nil
	}
	a.CreatedAt = prev.CreatedAt
	a.UpdatedAt = s.now()
	s.analyses[a.ID] = copyAnalysis(a)
	return nil
}

func (s *MemoryStore) GetStats(_ context.Context) (*AnalysisStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &AnalysisStats{Total: len(s.analyses)}
	var totalMs float64
	var finished int
	for _, a := range s.analyses {
		switch a.Status {
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
		if a.CompletedAt != nil {
			totalMs += float64(a.CompletedAt.Sub(a.CreatedAt).Milliseconds())
			finished++
		}
	}
	if finished > 0 {
		stats.AvgRunMs = totalMs / float64(finished)
	}
	return stats, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyAnalysis(a *Analysis) *Analysis {
	c := *a
	c.Request = append([]byte(nil), a.Request...)
	c.Result = append([]byte(nil), a.Result...)
	if a.StartedAt != nil {
		t := *a.StartedAt
		c.StartedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
