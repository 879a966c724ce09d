package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"chatdt/internal/domain"
)

// Dominance band thresholds on the CPS margin.
const (
	clearMargin  = 5.0
	slightMargin = 2.0
)

// Builder scores both teams of a fixture and assembles the MatchAnalysis
// aggregate, including the comparative verdict.
type Builder struct {
	engine *Engine
	now    func() time.Time // injectable clock for deterministic output
	newID  func() string
}

// NewBuilder creates a Builder around the given engine.
func NewBuilder(engine *Engine) *Builder {
	return &Builder{
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithRunID sets a custom run-id generator for deterministic output.
func (b *Builder) WithRunID(newID func() string) *Builder {
	b.newID = newID
	return b
}

// Build computes both teams' CPS scores and the verdict.
// Returns ErrIncompleteMatchData if either team's statistics are missing;
// scoring validation errors propagate unwrapped apart from side context.
func (b *Builder) Build(raw *domain.RawMatch) (*domain.MatchAnalysis, error) {
	if raw == nil || raw.Home == nil || raw.Away == nil {
		return nil, fmt.Errorf("%w: fixture %d", ErrIncompleteMatchData, fixtureID(raw))
	}

	homeCPS, err := b.engine.Compute(*raw.Home)
	if err != nil {
		return nil, fmt.Errorf("score home team: %w", err)
	}

	awayCPS, err := b.engine.Compute(*raw.Away)
	if err != nil {
		return nil, fmt.Errorf("score away team: %w", err)
	}

	verdict := buildVerdict(raw.Info, homeCPS, awayCPS)

	return &domain.MatchAnalysis{
		FixtureID: raw.Info.FixtureID,
		RunID:     b.newID(),
		Info:      raw.Info,
		HomeStats: *raw.Home,
		AwayStats: *raw.Away,
		HomeCPS:   homeCPS,
		AwayCPS:   awayCPS,
		Verdict:   verdict,
		CreatedAt: b.now().UnixMilli(),
	}, nil
}

func fixtureID(raw *domain.RawMatch) int64 {
	if raw == nil {
		return 0
	}
	return raw.Info.FixtureID
}

// buildVerdict compares CPS totals. Equal totals are a tie; otherwise the
// higher total wins regardless of the actual score result.
func buildVerdict(info domain.MatchInfo, home, away domain.CPSScore) domain.Verdict {
	diff := home.Total - away.Total
	margin := math.Abs(diff)

	var winner domain.Winner
	switch {
	case diff > 0:
		winner = domain.WinnerHome
	case diff < 0:
		winner = domain.WinnerAway
	default:
		winner = domain.WinnerTie
	}

	var dominance domain.Dominance
	switch {
	case margin > clearMargin:
		dominance = domain.DominanceClear
	case margin > slightMargin:
		dominance = domain.DominanceSlight
	default:
		dominance = domain.DominanceTie
	}

	return domain.Verdict{
		Winner:    winner,
		Margin:    margin,
		Dominance: dominance,
		Text:      verdictText(info, winner, dominance, margin, home, away),
	}
}

// verdictText renders the four-case narrative verdict: deserved win, close
// game, unjust result, and draw.
func verdictText(info domain.MatchInfo, cpsWinner domain.Winner, dominance domain.Dominance, margin float64, home, away domain.CPSScore) string {
	// Scoreline winner, if any.
	var scoreWinner domain.Winner
	switch {
	case info.HomeGoals > info.AwayGoals:
		scoreWinner = domain.WinnerHome
	case info.AwayGoals > info.HomeGoals:
		scoreWinner = domain.WinnerAway
	default:
		scoreWinner = domain.WinnerTie
	}

	name := func(w domain.Winner) string {
		if w == domain.WinnerHome {
			return info.HomeTeam
		}
		return info.AwayTeam
	}
	total := func(w domain.Winner) float64 {
		if w == domain.WinnerHome {
			return home.Total
		}
		return away.Total
	}

	// Within the technical-tie band the game reads as even regardless of
	// which side edged the raw totals.
	even := dominance == domain.DominanceTie || cpsWinner == domain.WinnerTie

	switch {
	case scoreWinner != domain.WinnerTie && even:
		return fmt.Sprintf("Close game. %s took the points but both sides performed at a similar level (CPS margin of only %.1f).",
			name(scoreWinner), margin)

	case scoreWinner != domain.WinnerTie && scoreWinner == cpsWinner:
		return fmt.Sprintf("%s won and deserved it: a CPS of %.1f, %.1f points clear of the opposition.",
			name(scoreWinner), total(scoreWinner), margin)

	case scoreWinner != domain.WinnerTie && scoreWinner != cpsWinner:
		return fmt.Sprintf("Unjust result: %s was the better side with a CPS of %.1f (%.1f points clear), yet %s took the win. Football does not always reward the better team.",
			name(cpsWinner), total(cpsWinner), margin, name(scoreWinner))

	case even:
		return "A fair draw. Both teams performed at a similar level."

	default:
		return fmt.Sprintf("A draw that flatters the opposition: %s was %.1f CPS points the better side.",
			name(cpsWinner), margin)
	}
}
