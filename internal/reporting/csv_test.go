package reporting

import (
	"strings"
	"testing"

	"chatdt/internal/domain"
)

func TestRenderAnalysesCSV(t *testing.T) {
	analyses := []*domain.MatchAnalysis{
		{
			FixtureID: 971362,
			RunID:     "run-1",
			CreatedAt: 1696190400000,
			Info: domain.MatchInfo{
				HomeTeam: "Boca Juniors", AwayTeam: "River Plate",
				HomeGoals: 2, AwayGoals: 1,
			},
			HomeCPS: domain.CPSScore{Threat: 45.4, Control: 76.5, Friction: -12, Total: 109.9},
			AwayCPS: domain.CPSScore{Threat: 21.2, Control: 58.2, Friction: -9.5, Total: 69.9},
			Verdict: domain.Verdict{Winner: domain.WinnerHome, Margin: 40, Dominance: domain.DominanceClear},
		},
	}

	csv := RenderAnalysesCSV(analyses)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "fixture_id,run_id,created_at") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := "971362,run-1,1696190400000,Boca Juniors,River Plate,2,1,45.40,76.50,-12.00,109.90,21.20,58.20,-9.50,69.90,HOME,40.00,CLEAR"
	if lines[1] != want {
		t.Errorf("row mismatch:\n got %s\nwant %s", lines[1], want)
	}
}

func TestRenderAnalysesCSVEmpty(t *testing.T) {
	csv := RenderAnalysesCSV(nil)
	if !strings.HasSuffix(csv, "\n") || strings.Count(csv, "\n") != 1 {
		t.Errorf("expected header only, got %q", csv)
	}
}

func TestEscapeCSV(t *testing.T) {
	if got := escapeCSV(`Newell's Old Boys`); got != `Newell's Old Boys` {
		t.Errorf("plain field changed: %s", got)
	}
	if got := escapeCSV(`Racing, Club`); got != `"Racing, Club"` {
		t.Errorf("comma field not quoted: %s", got)
	}
	if got := escapeCSV(`a"b`); got != `"a""b"` {
		t.Errorf("quote field not escaped: %s", got)
	}
}
