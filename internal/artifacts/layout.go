// Package artifacts manages the on-disk artifact tree. Every artifact path
// is a deterministic function of the fixture identifier, which is what makes
// branch-only re-runs idempotent.
package artifacts

import (
	"fmt"
	"path/filepath"
)

// Layout maps fixture identifiers to artifact paths under a root directory.
//
//	<root>/raw/match_<id>.json        raw provider payload
//	<root>/processed/analysis_<id>.json  processed MatchAnalysis
//	<root>/reports/report_<id>.md     narrative report
//	<root>/charts/chart_<id>.png      CPS chart
type Layout struct {
	Root string
}

// NewLayout creates a Layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Root: dir}
}

// RawMatchPath returns the raw provider payload path for a fixture.
func (l Layout) RawMatchPath(fixtureID int64) string {
	return filepath.Join(l.Root, "raw", fmt.Sprintf("match_%d.json", fixtureID))
}

// AnalysisPath returns the processed analysis path for a fixture.
func (l Layout) AnalysisPath(fixtureID int64) string {
	return filepath.Join(l.Root, "processed", fmt.Sprintf("analysis_%d.json", fixtureID))
}

// ReportPath returns the narrative report path for a fixture.
func (l Layout) ReportPath(fixtureID int64) string {
	return filepath.Join(l.Root, "reports", fmt.Sprintf("report_%d.md", fixtureID))
}

// ChartPath returns the CPS chart path for a fixture.
func (l Layout) ChartPath(fixtureID int64) string {
	return filepath.Join(l.Root, "charts", fmt.Sprintf("chart_%d.png", fixtureID))
}
