package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatdt/internal/domain"
)

// BasicWriter renders a deterministic markdown report without any LLM. It is
// the fallback used when no provider key is configured or a provider call
// fails.
type BasicWriter struct {
	now func() time.Time
}

// NewBasicWriter creates a BasicWriter.
func NewBasicWriter() *BasicWriter {
	return &BasicWriter{now: time.Now}
}

// WithBasicClock overrides the footer timestamp source (used by tests).
func (w *BasicWriter) WithBasicClock(now func() time.Time) *BasicWriter {
	w.now = now
	return w
}

var _ Writer = (*BasicWriter)(nil)

func (w *BasicWriter) Name() string { return "basic" }

// WriteReport renders the template report.
func (w *BasicWriter) WriteReport(_ context.Context, a *domain.MatchAnalysis) (string, error) {
	if a == nil {
		return "", errors.New("basic report: nil analysis")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %d-%d %s\n\n", a.Info.HomeTeam, a.Info.HomeGoals, a.Info.AwayGoals, a.Info.AwayTeam)
	fmt.Fprintf(&b, "**Date:** %s  \n", a.Info.Date)
	fmt.Fprintf(&b, "**Venue:** %s\n\n", a.Info.Venue)
	b.WriteString("---\n\n")
	b.WriteString("## ChatDT Analysis\n\n")
	b.WriteString("### CPS Score (ChatDT Performance Score)\n\n")
	fmt.Fprintf(&b, "| Metric | %s | %s |\n", a.Info.HomeTeam, a.Info.AwayTeam)
	b.WriteString("|--------|--------|--------|\n")
	fmt.Fprintf(&b, "| Threat | %.1f | %.1f |\n", a.HomeCPS.Threat, a.AwayCPS.Threat)
	fmt.Fprintf(&b, "| Control | %.1f | %.1f |\n", a.HomeCPS.Control, a.AwayCPS.Control)
	fmt.Fprintf(&b, "| Friction | %.1f | %.1f |\n", a.HomeCPS.Friction, a.AwayCPS.Friction)
	fmt.Fprintf(&b, "| **TOTAL** | **%.1f** | **%.1f** |\n\n", a.HomeCPS.Total, a.AwayCPS.Total)
	b.WriteString("---\n\n")
	b.WriteString("## Verdict\n\n")
	fmt.Fprintf(&b, "%s\n\n", a.Verdict.Text)
	b.WriteString("---\n\n")
	b.WriteString("*Generated by ChatDT - The Agentic Football Analyst*  \n")
	fmt.Fprintf(&b, "*%s*\n", w.now().Format("2006-01-02 15:04"))
	return b.String(), nil
}
