package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chatdt/internal/domain"
	"chatdt/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
// Raw statistics and fixture metadata are stored as JSONB; the CPS scores
// and verdict are structured columns so they can be queried directly.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

// Insert adds a new analysis. Returns ErrDuplicateKey if (fixture_id, run_id) exists.
func (s *AnalysisStore) Insert(ctx context.Context, a *domain.MatchAnalysis) error {
	if a == nil || a.FixtureID == 0 || a.RunID == "" {
		return storage.ErrInvalidInput
	}

	info, err := json.Marshal(a.Info)
	if err != nil {
		return fmt.Errorf("marshal match info: %w", err)
	}
	homeStats, err := json.Marshal(a.HomeStats)
	if err != nil {
		return fmt.Errorf("marshal home stats: %w", err)
	}
	awayStats, err := json.Marshal(a.AwayStats)
	if err != nil {
		return fmt.Errorf("marshal away stats: %w", err)
	}

	query := `
		INSERT INTO match_analyses (
			fixture_id, run_id, info, home_stats, away_stats,
			home_threat, home_control, home_friction, home_total,
			away_threat, away_control, away_friction, away_total,
			verdict_winner, verdict_margin, verdict_dominance, verdict_text,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = s.pool.Exec(ctx, query,
		a.FixtureID,
		a.RunID,
		info,
		homeStats,
		awayStats,
		a.HomeCPS.Threat, a.HomeCPS.Control, a.HomeCPS.Friction, a.HomeCPS.Total,
		a.AwayCPS.Threat, a.AwayCPS.Control, a.AwayCPS.Friction, a.AwayCPS.Total,
		string(a.Verdict.Winner),
		a.Verdict.Margin,
		string(a.Verdict.Dominance),
		a.Verdict.Text,
		a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

const analysisColumns = `
	fixture_id, run_id, info, home_stats, away_stats,
	home_threat, home_control, home_friction, home_total,
	away_threat, away_control, away_friction, away_total,
	verdict_winner, verdict_margin, verdict_dominance, verdict_text,
	created_at
`

// GetLatestByFixture retrieves the most recently created analysis for a fixture.
func (s *AnalysisStore) GetLatestByFixture(ctx context.Context, fixtureID int64) (*domain.MatchAnalysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM match_analyses
		WHERE fixture_id = $1
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, fixtureID)
	a, err := scanAnalysis(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}
	return a, nil
}

// GetByFixture retrieves all analyses for a fixture, ordered by created_at ASC, run_id ASC.
func (s *AnalysisStore) GetByFixture(ctx context.Context, fixtureID int64) ([]*domain.MatchAnalysis, error) {
	query := `
		SELECT ` + analysisColumns + `
		FROM match_analyses
		WHERE fixture_id = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("get analyses by fixture: %w", err)
	}
	defer rows.Close()

	var result []*domain.MatchAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return result, nil
}

// scanAnalysis scans a single row into a MatchAnalysis.
func scanAnalysis(row pgx.Row) (*domain.MatchAnalysis, error) {
	var (
		a             domain.MatchAnalysis
		info          []byte
		homeStats     []byte
		awayStats     []byte
		winner        string
		dominance     string
	)

	err := row.Scan(
		&a.FixtureID,
		&a.RunID,
		&info,
		&homeStats,
		&awayStats,
		&a.HomeCPS.Threat, &a.HomeCPS.Control, &a.HomeCPS.Friction, &a.HomeCPS.Total,
		&a.AwayCPS.Threat, &a.AwayCPS.Control, &a.AwayCPS.Friction, &a.AwayCPS.Total,
		&winner,
		&a.Verdict.Margin,
		&dominance,
		&a.Verdict.Text,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(info, &a.Info); err != nil {
		return nil, fmt.Errorf("unmarshal match info: %w", err)
	}
	if err := json.Unmarshal(homeStats, &a.HomeStats); err != nil {
		return nil, fmt.Errorf("unmarshal home stats: %w", err)
	}
	if err := json.Unmarshal(awayStats, &a.AwayStats); err != nil {
		return nil, fmt.Errorf("unmarshal away stats: %w", err)
	}
	a.Verdict.Winner = domain.Winner(winner)
	a.Verdict.Dominance = domain.Dominance(dominance)

	return &a, nil
}
