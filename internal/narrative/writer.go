// Package narrative turns a match analysis into a markdown match report,
// either through an LLM provider or a deterministic fallback template.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"chatdt/internal/domain"
)

// Writer produces a markdown match report from an analysis.
type Writer interface {
	// WriteReport returns the report body. Implementations must not write
	// artifacts themselves; persistence is the caller's job.
	WriteReport(ctx context.Context, analysis *domain.MatchAnalysis) (string, error)

	// Name identifies the writer in logs and report footers.
	Name() string
}

const systemPrompt = `You are a seasoned football journalist writing a match chronicle in Markdown.

STYLE:
- Passionate but grounded in the numbers
- Cite the CPS Score components to justify every conclusion
- The title must reflect the narrative of the match

FORMAT:
- Title with #
- Subtitles with ##
- Bold for team names
- Include a "By the numbers" section citing the CPS Score
- Close with a final verdict

Write 400-600 words.`

// buildContext renders the analysis as the user-facing prompt block.
func buildContext(a *domain.MatchAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MATCH DATA:\n")
	fmt.Fprintf(&b, "- %s %d - %d %s\n", a.Info.HomeTeam, a.Info.HomeGoals, a.Info.AwayGoals, a.Info.AwayTeam)
	fmt.Fprintf(&b, "- Date: %s\n", a.Info.Date)
	fmt.Fprintf(&b, "- Venue: %s\n\n", a.Info.Venue)

	b.WriteString("CPS SCORE (ChatDT Performance Score):\n")
	writeTeamScores(&b, a.Info.HomeTeam, a.HomeCPS)
	writeTeamScores(&b, a.Info.AwayTeam, a.AwayCPS)

	fmt.Fprintf(&b, "\nSYSTEM VERDICT: %s\n", a.Verdict.Text)
	return b.String()
}

func writeTeamScores(b *strings.Builder, team string, s domain.CPSScore) {
	fmt.Fprintf(b, "%s:\n", team)
	fmt.Fprintf(b, "  - Threat (attacking danger): %.1f\n", s.Threat)
	fmt.Fprintf(b, "  - Control (dominance): %.1f\n", s.Control)
	fmt.Fprintf(b, "  - Friction (negative impact): %.1f\n", s.Friction)
	fmt.Fprintf(b, "  - TOTAL CPS: %.1f\n", s.Total)
}

func userPrompt(a *domain.MatchAnalysis) string {
	return "Write the chronicle of this match:\n\n" + buildContext(a)
}
