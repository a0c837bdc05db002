package store

import (
	"context"
	"sync"

	"titlechain/internal/title/models"
	"titlechain/pkg/platform/sentinel"
)

// InMemoryStore keeps results in a map. Used by unit tests and local runs
// without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[string]models.AnalysisResult
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{results: make(map[string]models.AnalysisResult)}
}

func (s *InMemoryStore) Save(_ context.Context, result models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.CaseID] = result
	return nil
}

func (s *InMemoryStore) FindByCase(_ context.Context, caseID string) (models.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[caseID]
	if !ok {
		return models.AnalysisResult{}, sentinel.ErrNotFound
	}
	return result, nil
}
