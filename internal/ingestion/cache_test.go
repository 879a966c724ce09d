package ingestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdt/internal/artifacts"
	"chatdt/internal/domain"
)

type countingProvider struct {
	fetches int
	raw     *domain.RawMatch
	err     error
}

func (p *countingProvider) FetchMatch(ctx context.Context, fixtureID int64) (*domain.RawMatch, error) {
	p.fetches++
	if p.err != nil {
		return nil, p.err
	}
	return p.raw, nil
}

func (p *countingProvider) LatestFixtureID(ctx context.Context, teamID int64) (int64, error) {
	return p.raw.Info.FixtureID, nil
}

func (p *countingProvider) HeadToHead(ctx context.Context, teamA, teamB int64) ([]domain.FixtureSummary, error) {
	return nil, nil
}

func testRawMatch() *domain.RawMatch {
	return &domain.RawMatch{
		Info: domain.MatchInfo{
			FixtureID: 971362,
			HomeTeam:  "Boca Juniors",
			AwayTeam:  "River Plate",
			HomeGoals: 2,
			AwayGoals: 1,
			Date:      "2023-10-01",
		},
		Home: &domain.MatchStatistics{ShotsOnGoal: 6, Possession: 57, PassAccuracy: 84, TotalPasses: 512},
		Away: &domain.MatchStatistics{ShotsOnGoal: 3, Possession: 43, PassAccuracy: 79, TotalPasses: 401},
	}
}

func TestCachedProviderFetchesUpstreamOnce(t *testing.T) {
	store := artifacts.NewStore(artifacts.NewLayout(t.TempDir()))
	upstream := &countingProvider{raw: testRawMatch()}
	cached := NewCachedProvider(upstream, store)

	first, err := cached.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)
	require.Equal(t, 1, upstream.fetches)

	second, err := cached.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.fetches, "cached fixture must not hit upstream")
	assert.Equal(t, first, second)
}

func TestCachedProviderPersistsRawArtifact(t *testing.T) {
	store := artifacts.NewStore(artifacts.NewLayout(t.TempDir()))
	upstream := &countingProvider{raw: testRawMatch()}
	cached := NewCachedProvider(upstream, store)

	_, err := cached.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)
	assert.True(t, store.Exists(store.Layout().RawMatchPath(971362)))
}

func TestCachedProviderServesWarmCacheWithoutUpstream(t *testing.T) {
	store := artifacts.NewStore(artifacts.NewLayout(t.TempDir()))
	require.NoError(t, store.WriteJSON(store.Layout().RawMatchPath(971362), testRawMatch()))

	upstream := &countingProvider{err: ErrRateLimited}
	cached := NewCachedProvider(upstream, store)

	raw, err := cached.FetchMatch(context.Background(), 971362)
	require.NoError(t, err)
	assert.Equal(t, 0, upstream.fetches)
	assert.Equal(t, "Boca Juniors", raw.Info.HomeTeam)
}

func TestCachedProviderPropagatesUpstreamErrors(t *testing.T) {
	store := artifacts.NewStore(artifacts.NewLayout(t.TempDir()))
	upstream := &countingProvider{err: ErrDataUnavailable}
	cached := NewCachedProvider(upstream, store)

	_, err := cached.FetchMatch(context.Background(), 971362)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.False(t, store.Exists(store.Layout().RawMatchPath(971362)), "errors are not cached")
}
