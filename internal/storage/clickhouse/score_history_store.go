package clickhouse

import (
	"context"
	"fmt"

	"chatdt/internal/domain"
	"chatdt/internal/storage"
)

// ScoreHistoryStore implements storage.ScoreHistoryStore using ClickHouse.
// MergeTree does not enforce uniqueness at insert time, so duplicates are
// detected with an explicit check before appending.
type ScoreHistoryStore struct {
	conn *Conn
}

// NewScoreHistoryStore creates a new ScoreHistoryStore.
func NewScoreHistoryStore(conn *Conn) *ScoreHistoryStore {
	return &ScoreHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreHistoryStore = (*ScoreHistoryStore)(nil)

// InsertBulk appends rows. Returns ErrDuplicateKey if any
// (fixture_id, run_id, side) already exists.
func (s *ScoreHistoryStore) InsertBulk(ctx context.Context, rows []*storage.ScoreHistoryRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, r := range rows {
		key := fmt.Sprintf("%d|%s|%s", r.FixtureID, r.RunID, r.Side)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, r := range rows {
		exists, err := s.exists(ctx, r.FixtureID, r.RunID, string(r.Side))
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_history (
			fixture_id, run_id, team_id, team, side,
			threat, control, friction, total, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.FixtureID, r.RunID, r.TeamID, r.Team, string(r.Side),
			r.Threat, r.Control, r.Friction, r.Total, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTeam retrieves all rows for a team, ordered by created_at ASC.
func (s *ScoreHistoryStore) GetByTeam(ctx context.Context, teamID int64) ([]*storage.ScoreHistoryRow, error) {
	query := `
		SELECT fixture_id, run_id, team_id, team, side,
		       threat, control, friction, total, created_at
		FROM score_history
		WHERE team_id = ?
		ORDER BY created_at ASC, fixture_id ASC, side ASC
	`

	rows, err := s.conn.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("query by team: %w", err)
	}
	defer rows.Close()

	var result []*storage.ScoreHistoryRow
	for rows.Next() {
		var (
			r    storage.ScoreHistoryRow
			side string
		)
		err := rows.Scan(
			&r.FixtureID, &r.RunID, &r.TeamID, &r.Team, &side,
			&r.Threat, &r.Control, &r.Friction, &r.Total, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score history row: %w", err)
		}
		r.Side = domain.Side(side)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score history rows: %w", err)
	}
	return result, nil
}

// exists checks if a row with the given key exists.
func (s *ScoreHistoryStore) exists(ctx context.Context, fixtureID int64, runID, side string) (bool, error) {
	query := `
		SELECT count(*) FROM score_history
		WHERE fixture_id = ? AND run_id = ? AND side = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, fixtureID, runID, side).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
