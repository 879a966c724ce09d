package scoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdt/internal/domain"
)

func testBuilder() *Builder {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewBuilder(NewDefaultEngine()).
		WithClock(func() time.Time { return fixed }).
		WithRunID(func() string { return "run-1" })
}

func testRawMatch(home, away domain.MatchStatistics) *domain.RawMatch {
	return &domain.RawMatch{
		Info: domain.MatchInfo{
			FixtureID: 971362,
			HomeTeam:  "Boca Juniors",
			AwayTeam:  "River Plate",
			HomeGoals: 1,
			AwayGoals: 0,
			Date:      "2023-10-01",
			Venue:     "La Bombonera",
		},
		Home: &home,
		Away: &away,
	}
}

func TestBuild_MissingTeamStats(t *testing.T) {
	b := testBuilder()

	raw := testRawMatch(domain.MatchStatistics{}, domain.MatchStatistics{})
	raw.Away = nil
	_, err := b.Build(raw)
	assert.ErrorIs(t, err, ErrIncompleteMatchData)

	raw = testRawMatch(domain.MatchStatistics{}, domain.MatchStatistics{})
	raw.Home = nil
	_, err = b.Build(raw)
	assert.ErrorIs(t, err, ErrIncompleteMatchData)

	_, err = b.Build(nil)
	assert.ErrorIs(t, err, ErrIncompleteMatchData)
}

func TestBuild_VerdictHigherTotalWins(t *testing.T) {
	b := testBuilder()

	home := domain.MatchStatistics{ShotsOnGoal: 10, Possession: 60, PassAccuracy: 85, TotalPasses: 500}
	away := domain.MatchStatistics{ShotsOnGoal: 2, Possession: 40, PassAccuracy: 70, TotalPasses: 300}

	analysis, err := b.Build(testRawMatch(home, away))
	require.NoError(t, err)

	assert.Equal(t, domain.WinnerHome, analysis.Verdict.Winner)
	assert.InDelta(t, analysis.HomeCPS.Total-analysis.AwayCPS.Total, analysis.Verdict.Margin, 1e-9)
	assert.Equal(t, domain.DominanceClear, analysis.Verdict.Dominance)
}

func TestBuild_VerdictTieOnEqualTotals(t *testing.T) {
	b := testBuilder()

	stats := domain.MatchStatistics{ShotsOnGoal: 5, Possession: 50, PassAccuracy: 80, TotalPasses: 400, Fouls: 10}
	analysis, err := b.Build(testRawMatch(stats, stats))
	require.NoError(t, err)

	assert.Equal(t, domain.WinnerTie, analysis.Verdict.Winner)
	assert.Zero(t, analysis.Verdict.Margin)
	assert.Equal(t, domain.DominanceTie, analysis.Verdict.Dominance)
}

func TestBuild_VerdictIgnoresScoreline(t *testing.T) {
	b := testBuilder()

	// Away dominates CPS but home won 1-0: the CPS verdict must favor the
	// away side and the verdict text must call out the unjust result.
	home := domain.MatchStatistics{ShotsOnGoal: 1, Possession: 35, PassAccuracy: 60, TotalPasses: 200}
	away := domain.MatchStatistics{ShotsOnGoal: 12, ShotsInsideBox: 6, Possession: 65, PassAccuracy: 90, TotalPasses: 600}

	analysis, err := b.Build(testRawMatch(home, away))
	require.NoError(t, err)

	assert.Equal(t, domain.WinnerAway, analysis.Verdict.Winner)
	assert.Contains(t, analysis.Verdict.Text, "Unjust result")
	assert.Contains(t, analysis.Verdict.Text, "River Plate")
}

func TestBuild_VerdictOneUnitDifference(t *testing.T) {
	b := testBuilder()

	// 2 extra fouls = -1.0 CPS: a one-unit margin still decides the winner.
	home := domain.MatchStatistics{ShotsOnGoal: 5, Possession: 50, PassAccuracy: 80, TotalPasses: 400, Fouls: 10}
	away := home
	away.Fouls = 12

	analysis, err := b.Build(testRawMatch(home, away))
	require.NoError(t, err)

	assert.Equal(t, domain.WinnerHome, analysis.Verdict.Winner)
	assert.InDelta(t, 1.0, analysis.Verdict.Margin, 1e-9)
	assert.Equal(t, domain.DominanceTie, analysis.Verdict.Dominance)
}

func TestBuild_VerdictDeservedWin(t *testing.T) {
	b := testBuilder()

	home := domain.MatchStatistics{ShotsOnGoal: 10, ShotsInsideBox: 4, Possession: 60, PassAccuracy: 85, TotalPasses: 500}
	away := domain.MatchStatistics{ShotsOnGoal: 2, Possession: 40, PassAccuracy: 70, TotalPasses: 300}

	analysis, err := b.Build(testRawMatch(home, away))
	require.NoError(t, err)

	assert.True(t, strings.Contains(analysis.Verdict.Text, "deserved"),
		"expected deserved-win verdict, got: %s", analysis.Verdict.Text)
	assert.Contains(t, analysis.Verdict.Text, "Boca Juniors")
}

func TestBuild_PropagatesInvalidStatistics(t *testing.T) {
	b := testBuilder()

	bad := domain.MatchStatistics{ShotsOnGoal: -1}
	_, err := b.Build(testRawMatch(bad, domain.MatchStatistics{}))
	assert.ErrorIs(t, err, ErrInvalidStatistics)
	assert.False(t, errors.Is(err, ErrIncompleteMatchData))
}

func TestBuild_PopulatesAggregate(t *testing.T) {
	b := testBuilder()

	home := domain.MatchStatistics{ShotsOnGoal: 3, Possession: 55, PassAccuracy: 82, TotalPasses: 450}
	away := domain.MatchStatistics{ShotsOnGoal: 4, Possession: 45, PassAccuracy: 78, TotalPasses: 380, Fouls: 9}

	analysis, err := b.Build(testRawMatch(home, away))
	require.NoError(t, err)

	assert.EqualValues(t, 971362, analysis.FixtureID)
	assert.Equal(t, "run-1", analysis.RunID)
	assert.Equal(t, home, analysis.HomeStats)
	assert.Equal(t, away, analysis.AwayStats)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), analysis.CreatedAt)
}
