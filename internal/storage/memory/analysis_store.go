// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"chatdt/internal/domain"
	"chatdt/internal/storage"
)

type analysisKey struct {
	fixtureID int64
	runID     string
}

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu   sync.RWMutex
	data map[analysisKey]*domain.MatchAnalysis
}

// NewAnalysisStore creates a new in-memory analysis store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		data: make(map[analysisKey]*domain.MatchAnalysis),
	}
}

// Insert adds a new analysis. Returns ErrDuplicateKey if (fixture_id, run_id) exists.
func (s *AnalysisStore) Insert(_ context.Context, a *domain.MatchAnalysis) error {
	if a == nil || a.FixtureID == 0 || a.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := analysisKey{fixtureID: a.FixtureID, runID: a.RunID}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	analysisCopy := *a
	s.data[key] = &analysisCopy
	return nil
}

// GetLatestByFixture retrieves the most recently created analysis for a fixture.
func (s *AnalysisStore) GetLatestByFixture(ctx context.Context, fixtureID int64) (*domain.MatchAnalysis, error) {
	all, err := s.GetByFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[len(all)-1], nil
}

// GetByFixture retrieves all analyses for a fixture, ordered by created_at ASC, run_id ASC.
func (s *AnalysisStore) GetByFixture(_ context.Context, fixtureID int64) ([]*domain.MatchAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MatchAnalysis
	for key, a := range s.data {
		if key.fixtureID == fixtureID {
			analysisCopy := *a
			result = append(result, &analysisCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)
