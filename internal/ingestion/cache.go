package ingestion

import (
	"context"
	"fmt"

	"chatdt/internal/artifacts"
	"chatdt/internal/domain"
	"chatdt/internal/observability"
)

// CachedProvider is a read-through cache over a Provider. Fetched matches are
// persisted as raw artifacts; a cached fixture never reaches the upstream
// provider again, which keeps branch-only re-runs quota-free.
type CachedProvider struct {
	upstream Provider
	store    *artifacts.Store
}

// NewCachedProvider wraps upstream with the artifact-backed cache.
func NewCachedProvider(upstream Provider, store *artifacts.Store) *CachedProvider {
	return &CachedProvider{upstream: upstream, store: store}
}

var _ Provider = (*CachedProvider)(nil)

// FetchMatch returns the cached raw match if present, otherwise fetches from
// upstream and persists the result.
func (p *CachedProvider) FetchMatch(ctx context.Context, fixtureID int64) (*domain.RawMatch, error) {
	path := p.store.Layout().RawMatchPath(fixtureID)
	if p.store.Exists(path) {
		var raw domain.RawMatch
		if err := p.store.ReadJSON(path, &raw); err != nil {
			return nil, fmt.Errorf("read cached match %d: %w", fixtureID, err)
		}
		observability.RecordCacheHit()
		return &raw, nil
	}
	observability.RecordCacheMiss()

	raw, err := p.upstream.FetchMatch(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if err := p.store.WriteJSON(path, raw); err != nil {
		return nil, fmt.Errorf("cache match %d: %w", fixtureID, err)
	}
	return raw, nil
}

// LatestFixtureID is not cached: the answer changes as new fixtures finish.
func (p *CachedProvider) LatestFixtureID(ctx context.Context, teamID int64) (int64, error) {
	return p.upstream.LatestFixtureID(ctx, teamID)
}

// HeadToHead is not cached.
func (p *CachedProvider) HeadToHead(ctx context.Context, teamA, teamB int64) ([]domain.FixtureSummary, error) {
	return p.upstream.HeadToHead(ctx, teamA, teamB)
}
