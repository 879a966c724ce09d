package domain

// CPSScore is the composite performance score for one team in one fixture.
// Immutable once computed: Total = Threat + Control + Friction.
type CPSScore struct {
	Threat   float64
	Control  float64
	Friction float64 // non-positive whenever any foul or card occurred
	Total    float64
}

// Winner is the comparative verdict of an analysis.
type Winner string

const (
	WinnerHome Winner = "HOME"
	WinnerAway Winner = "AWAY"
	WinnerTie  Winner = "TIE"
)

// Dominance bands the CPS margin the way the verdict text uses it.
type Dominance string

const (
	DominanceClear  Dominance = "CLEAR"  // margin > 5
	DominanceSlight Dominance = "SLIGHT" // margin > 2
	DominanceTie    Dominance = "TIE"    // margin <= 2
)

// Verdict compares the two teams' CPS totals.
// The CPS winner may differ from the scoreline winner; that divergence is
// the point of the metric and is never reconciled.
type Verdict struct {
	Winner    Winner
	Margin    float64 // |home total - away total|
	Dominance Dominance
	Text      string // human-readable explanation
}

// MatchAnalysis is the canonical processed-result artifact for one run.
// Keyed by (FixtureID, RunID); re-runs append a new row, rows are never
// updated in place.
type MatchAnalysis struct {
	FixtureID int64
	RunID     string
	Info      MatchInfo
	HomeStats MatchStatistics
	AwayStats MatchStatistics
	HomeCPS   CPSScore
	AwayCPS   CPSScore
	Verdict   Verdict
	CreatedAt int64 // Unix timestamp in milliseconds
}
