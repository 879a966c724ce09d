// Package storage defines the persistence interfaces for processed analyses.
package storage

import (
	"context"

	"chatdt/internal/domain"
)

// AnalysisStore provides access to match_analyses storage.
// The store is append-only: a re-run writes a new row under a fresh run id,
// existing rows are never updated.
type AnalysisStore interface {
	// Insert adds a new analysis. Returns ErrDuplicateKey if
	// (fixture_id, run_id) exists.
	Insert(ctx context.Context, a *domain.MatchAnalysis) error

	// GetLatestByFixture retrieves the most recently created analysis for a
	// fixture. Returns ErrNotFound if none exists.
	GetLatestByFixture(ctx context.Context, fixtureID int64) (*domain.MatchAnalysis, error)

	// GetByFixture retrieves all analyses for a fixture, ordered by
	// created_at ASC, run_id ASC.
	GetByFixture(ctx context.Context, fixtureID int64) ([]*domain.MatchAnalysis, error)
}

// ScoreHistoryRow is one team's CPS outcome for one fixture, as appended to
// the analytics sink.
type ScoreHistoryRow struct {
	FixtureID int64
	RunID     string
	TeamID    int64
	Team      string
	Side      domain.Side
	Threat    float64
	Control   float64
	Friction  float64
	Total     float64
	CreatedAt int64 // Unix timestamp in milliseconds
}

// ScoreHistoryStore appends per-team CPS rows for longitudinal calibration.
type ScoreHistoryStore interface {
	// InsertBulk appends rows. Returns ErrDuplicateKey if any
	// (fixture_id, run_id, side) already exists.
	InsertBulk(ctx context.Context, rows []*ScoreHistoryRow) error

	// GetByTeam retrieves all rows for a team, ordered by created_at ASC.
	GetByTeam(ctx context.Context, teamID int64) ([]*ScoreHistoryRow, error)
}
