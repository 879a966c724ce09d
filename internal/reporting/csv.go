// Package reporting renders tabular exports of persisted analyses.
package reporting

import (
	"fmt"
	"strings"

	"chatdt/internal/domain"
)

// RenderAnalysesCSV renders a fixture's analyses as CSV string, one row per
// run, ordered as given (callers pass store order: created_at ASC).
func RenderAnalysesCSV(analyses []*domain.MatchAnalysis) string {
	var sb strings.Builder

	// Header
	sb.WriteString("fixture_id,run_id,created_at,home_team,away_team,home_goals,away_goals,")
	sb.WriteString("home_threat,home_control,home_friction,home_total,")
	sb.WriteString("away_threat,away_control,away_friction,away_total,")
	sb.WriteString("winner,margin,dominance\n")

	// Rows
	for _, a := range analyses {
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%s,%s,%d,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%s,%.2f,%s\n",
			a.FixtureID,
			a.RunID,
			a.CreatedAt,
			escapeCSV(a.Info.HomeTeam),
			escapeCSV(a.Info.AwayTeam),
			a.Info.HomeGoals,
			a.Info.AwayGoals,
			a.HomeCPS.Threat,
			a.HomeCPS.Control,
			a.HomeCPS.Friction,
			a.HomeCPS.Total,
			a.AwayCPS.Threat,
			a.AwayCPS.Control,
			a.AwayCPS.Friction,
			a.AwayCPS.Total,
			a.Verdict.Winner,
			a.Verdict.Margin,
			a.Verdict.Dominance,
		))
	}

	return sb.String()
}

// escapeCSV quotes a field containing commas or quotes.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
