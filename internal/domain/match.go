// Package domain defines the core types shared across the pipeline.
package domain

// Side identifies a team within a fixture.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
)

// MatchStatistics holds one team's raw statistics for one fixture,
// normalized from the provider payload. Missing provider fields are zero.
// Possession percentages of the two teams need not sum to 100; that is a
// provider artifact and nothing here assumes normalization.
type MatchStatistics struct {
	ShotsOnGoal    int
	ShotsInsideBox int
	ShotsOutsideBox int
	Corners        int
	Offsides       int
	Possession     float64 // percent, 0-100
	PassAccuracy   float64 // percent, 0-100
	TotalPasses    int
	Fouls          int
	YellowCards    int
	RedCards       int
}

// MatchInfo holds fixture metadata returned by the provider.
type MatchInfo struct {
	FixtureID int64
	HomeTeamID int64
	AwayTeamID int64
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
	Date      string // YYYY-MM-DD
	Venue     string
}

// RawMatch is the normalized output of the ingestion adapter:
// fixture metadata plus both teams' statistics.
type RawMatch struct {
	Info MatchInfo
	Home *MatchStatistics
	Away *MatchStatistics
}

// FixtureSummary is a single head-to-head meeting between two teams.
type FixtureSummary struct {
	FixtureID int64
	Date      string
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
}
