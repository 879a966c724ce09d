// Package ingestion fetches raw match statistics from the sports-data
// provider and normalizes them into domain records.
package ingestion

import (
	"context"
	"errors"

	"chatdt/internal/domain"
)

// Provider errors. Both are terminal for a run; the operator decides
// whether to retry later.
var (
	// ErrDataUnavailable is returned when the provider has no data for the
	// requested fixture or team.
	ErrDataUnavailable = errors.New("data unavailable from provider")

	// ErrRateLimited is returned when the provider signals quota
	// exhaustion. Never retried automatically: the daily quota is tight
	// and a retry loop would burn it.
	ErrRateLimited = errors.New("provider rate limit exhausted")
)

// Provider fetches fixture data from an external sports-data source.
type Provider interface {
	// FetchMatch returns the normalized match record for a fixture.
	// Returns ErrDataUnavailable if the fixture does not exist and
	// ErrRateLimited on quota exhaustion.
	FetchMatch(ctx context.Context, fixtureID int64) (*domain.RawMatch, error)

	// LatestFixtureID resolves a team to its most recent finished fixture.
	LatestFixtureID(ctx context.Context, teamID int64) (int64, error)

	// HeadToHead lists prior meetings between two teams, most recent first.
	HeadToHead(ctx context.Context, teamA, teamB int64) ([]domain.FixtureSummary, error)
}
