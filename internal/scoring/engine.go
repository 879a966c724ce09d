// Package scoring computes the CPS Score: a composite per-team performance
// metric derived from raw match statistics.
//
// CPS = Threat + Control + Friction, where Threat measures offensive output,
// Control measures possession and passing, and Friction penalizes fouls and
// cards. The computation is a pure function of one team's statistics.
package scoring

import (
	"errors"
	"fmt"

	"chatdt/internal/domain"
)

// Sentinel errors for scoring-stage failures.
var (
	// ErrInvalidStatistics is returned when a statistics record violates its
	// domain: a negative count, or a percentage outside [0,100]. Invalid
	// input is never clamped.
	ErrInvalidStatistics = errors.New("invalid statistics")

	// ErrIncompleteMatchData is returned by the builder when either team's
	// statistics are absent.
	ErrIncompleteMatchData = errors.New("incomplete match data")
)

// Weights holds the linear coefficients of the CPS formula.
// Zero-value fields mean "term contributes nothing"; use DefaultWeights for
// the calibrated table.
type Weights struct {
	// Threat
	ShotsOnGoal    float64
	ShotsInsideBox float64
	ShotsOutsideBox float64
	Corners        float64
	Offsides       float64

	// Control. Possession and PassAccuracy multiply the raw percentage
	// value (0-100), not a 0-1 fraction. The accuracy term therefore
	// dominates Control; this matches the calibrated output and is kept
	// as a known calibration ambiguity, not corrected.
	Possession   float64
	PassAccuracy float64
	TotalPasses  float64

	// Friction (negative coefficients)
	Fouls       float64
	YellowCards float64
	RedCards    float64
}

// DefaultWeights is the calibrated CPS weight table.
func DefaultWeights() Weights {
	return Weights{
		ShotsOnGoal:    3.0,
		ShotsInsideBox: 2.0,
		ShotsOutsideBox: 0.5,
		Corners:        1.0,
		Offsides:       -0.3,

		Possession:   0.4,
		PassAccuracy: 0.5,
		TotalPasses:  0.02,

		Fouls:       -0.5,
		YellowCards: -3.0,
		RedCards:    -10.0,
	}
}

// Engine computes CPS scores. It holds no mutable state; the same input
// always yields the same output.
type Engine struct {
	weights Weights
}

// NewEngine creates an Engine with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w}
}

// NewDefaultEngine creates an Engine with DefaultWeights.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultWeights())
}

// Compute derives the CPSScore for one team's statistics.
// Returns ErrInvalidStatistics if any count is negative or a percentage
// field lies outside [0,100].
func (e *Engine) Compute(stats domain.MatchStatistics) (domain.CPSScore, error) {
	if err := validate(stats); err != nil {
		return domain.CPSScore{}, err
	}

	w := e.weights

	threat := float64(stats.ShotsOnGoal)*w.ShotsOnGoal +
		float64(stats.ShotsInsideBox)*w.ShotsInsideBox +
		float64(stats.ShotsOutsideBox)*w.ShotsOutsideBox +
		float64(stats.Corners)*w.Corners +
		float64(stats.Offsides)*w.Offsides

	control := stats.Possession*w.Possession +
		stats.PassAccuracy*w.PassAccuracy +
		float64(stats.TotalPasses)*w.TotalPasses

	friction := float64(stats.Fouls)*w.Fouls +
		float64(stats.YellowCards)*w.YellowCards +
		float64(stats.RedCards)*w.RedCards

	return domain.CPSScore{
		Threat:   threat,
		Control:  control,
		Friction: friction,
		Total:    threat + control + friction,
	}, nil
}

// validate checks the non-negative and percentage-range invariants.
func validate(s domain.MatchStatistics) error {
	counts := []struct {
		name  string
		value int
	}{
		{"shots_on_goal", s.ShotsOnGoal},
		{"shots_inside_box", s.ShotsInsideBox},
		{"shots_outside_box", s.ShotsOutsideBox},
		{"corners", s.Corners},
		{"offsides", s.Offsides},
		{"total_passes", s.TotalPasses},
		{"fouls", s.Fouls},
		{"yellow_cards", s.YellowCards},
		{"red_cards", s.RedCards},
	}
	for _, c := range counts {
		if c.value < 0 {
			return fmt.Errorf("%w: %s is negative (%d)", ErrInvalidStatistics, c.name, c.value)
		}
	}

	percents := []struct {
		name  string
		value float64
	}{
		{"possession", s.Possession},
		{"pass_accuracy", s.PassAccuracy},
	}
	for _, p := range percents {
		if p.value < 0 || p.value > 100 {
			return fmt.Errorf("%w: %s out of range [0,100] (%g)", ErrInvalidStatistics, p.name, p.value)
		}
	}

	return nil
}
