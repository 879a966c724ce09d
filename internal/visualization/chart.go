// Package visualization renders CPS comparison charts.
package visualization

import (
	"bytes"
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"chatdt/internal/artifacts"
	"chatdt/internal/domain"
)

// Renderer produces a chart artifact from a match analysis.
type Renderer interface {
	RenderChart(analysis *domain.MatchAnalysis, path string) error
}

// BarChartRenderer renders a grouped bar chart of the CPS components
// (threat, control, friction, total) for both teams as a PNG artifact.
type BarChartRenderer struct {
	store *artifacts.Store
}

// NewBarChartRenderer creates a renderer writing through the artifact store.
func NewBarChartRenderer(store *artifacts.Store) *BarChartRenderer {
	return &BarChartRenderer{store: store}
}

var _ Renderer = (*BarChartRenderer)(nil)

var barWidth = vg.Points(24)

// RenderChart writes the comparison chart for analysis at path.
func (r *BarChartRenderer) RenderChart(analysis *domain.MatchAnalysis, path string) error {
	if analysis == nil {
		return errors.New("render chart: nil analysis")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s (CPS Score)", analysis.Info.HomeTeam, analysis.Info.AwayTeam)
	p.Y.Label.Text = "points"

	home, err := newBars(analysis.HomeCPS, 0, -barWidth/2)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	away, err := newBars(analysis.AwayCPS, 1, barWidth/2)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	p.Add(home, away)
	p.Legend.Add(analysis.Info.HomeTeam, home)
	p.Legend.Add(analysis.Info.AwayTeam, away)
	p.Legend.Top = true
	p.NominalX("Threat", "Control", "Friction", "Total")

	wt, err := p.WriterTo(7*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return r.store.WriteRaw(path, buf.Bytes())
}

func newBars(score domain.CPSScore, colorIdx int, offset vg.Length) (*plotter.BarChart, error) {
	values := plotter.Values{score.Threat, score.Control, score.Friction, score.Total}
	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(colorIdx)
	bars.Offset = offset
	return bars, nil
}
