package memory

import (
	"context"
	"sort"
	"sync"

	"chatdt/internal/storage"
)

type historyKey struct {
	fixtureID int64
	runID     string
	side      string
}

// ScoreHistoryStore is an in-memory implementation of storage.ScoreHistoryStore.
type ScoreHistoryStore struct {
	mu   sync.RWMutex
	data map[historyKey]*storage.ScoreHistoryRow
}

// NewScoreHistoryStore creates a new in-memory score history store.
func NewScoreHistoryStore() *ScoreHistoryStore {
	return &ScoreHistoryStore{
		data: make(map[historyKey]*storage.ScoreHistoryRow),
	}
}

// InsertBulk appends rows. Returns ErrDuplicateKey if any (fixture_id,
// run_id, side) already exists; the batch is all-or-nothing.
func (s *ScoreHistoryStore) InsertBulk(_ context.Context, rows []*storage.ScoreHistoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[historyKey]bool, len(rows))
	for _, r := range rows {
		if r == nil || r.FixtureID == 0 || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := historyKey{fixtureID: r.FixtureID, runID: r.RunID, side: string(r.Side)}
		if _, exists := s.data[key]; exists || seen[key] {
			return storage.ErrDuplicateKey
		}
		seen[key] = true
	}

	for _, r := range rows {
		key := historyKey{fixtureID: r.FixtureID, runID: r.RunID, side: string(r.Side)}
		rowCopy := *r
		s.data[key] = &rowCopy
	}
	return nil
}

// GetByTeam retrieves all rows for a team, ordered by created_at ASC.
func (s *ScoreHistoryStore) GetByTeam(_ context.Context, teamID int64) ([]*storage.ScoreHistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.ScoreHistoryRow
	for _, r := range s.data {
		if r.TeamID == teamID {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].FixtureID < result[j].FixtureID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)
