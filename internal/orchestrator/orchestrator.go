// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: ingestion → scoring → {visualization, narrative}
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chatdt/internal/artifacts"
	"chatdt/internal/domain"
	"chatdt/internal/ingestion"
	"chatdt/internal/narrative"
	"chatdt/internal/observability"
	"chatdt/internal/scoring"
	"chatdt/internal/storage"
	"chatdt/internal/visualization"
)

// State is a pipeline run state.
type State string

const (
	StateIngesting   State = "INGESTING"
	StateScoring     State = "SCORING"
	StateVisualizing State = "VISUALIZING"
	StateNarrating   State = "NARRATING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Adapter names used in failure records and metrics.
const (
	AdapterChart   = "chart"
	AdapterReport  = "report"
	AdapterHistory = "history"
)

// AdapterFailure records a non-fatal failure of an output adapter. The run
// still completes; the failure is surfaced, not swallowed.
type AdapterFailure struct {
	Adapter string
	Err     string
}

// Request selects the fixture to analyze. Exactly one of FixtureID or TeamID
// must be set; TeamID resolves to the team's latest finished fixture.
// OnlyChart / OnlyReport restrict a re-run to one branch and require a prior
// completed scoring phase for the fixture.
type Request struct {
	FixtureID  int64
	TeamID     int64
	OnlyChart  bool
	OnlyReport bool
}

// RunResult contains results from one pipeline run.
type RunResult struct {
	FixtureID int64
	RunID     string
	State     State
	// Transitions is the ordered list of states the run passed through.
	Transitions []State

	AnalysisPath string
	ChartPath    string
	ReportPath   string

	AdapterFailures []AdapterFailure
}

// Degraded reports whether the run finished with adapter failures.
func (r *RunResult) Degraded() bool {
	return r.State == StateDone && len(r.AdapterFailures) > 0
}

// Orchestrator coordinates the pipeline execution.
type Orchestrator struct {
	provider      ingestion.Provider
	builder       *scoring.Builder
	analysisStore storage.AnalysisStore
	artifactStore *artifacts.Store
	renderer      visualization.Renderer
	writer        narrative.Writer
	historyStore  storage.ScoreHistoryStore

	logger *slog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required components
	Provider      ingestion.Provider
	Builder       *scoring.Builder
	AnalysisStore storage.AnalysisStore
	ArtifactStore *artifacts.Store
	Renderer      visualization.Renderer
	Writer        narrative.Writer

	// Optional analytics sink; nil disables score history.
	HistoryStore storage.ScoreHistoryStore

	Logger *slog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider:      opts.Provider,
		builder:       opts.Builder,
		analysisStore: opts.AnalysisStore,
		artifactStore: opts.ArtifactStore,
		renderer:      opts.Renderer,
		writer:        opts.Writer,
		historyStore:  opts.HistoryStore,
		logger:        logger,
	}
}

// Run executes the pipeline for one request.
//
// Full runs pass through INGESTING → SCORING → {VISUALIZING, NARRATING} →
// DONE. The analysis is persisted before either output branch starts, so a
// branch failure never loses the scoring work. Branch failures are recorded
// as AdapterFailures and the run still reaches DONE; only ingestion, scoring
// and the analysis checkpoint are fatal.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*RunResult, error) {
	result := &RunResult{}

	if err := validateRequest(req); err != nil {
		result.State = StateFailed
		return result, err
	}

	if req.OnlyChart || req.OnlyReport {
		return o.runBranchOnly(ctx, req, result)
	}

	// Phase 1: ingestion.
	o.transition(result, StateIngesting)
	start := time.Now()
	raw, err := o.ingest(ctx, req)
	if err != nil {
		return o.fail(result, StateIngesting, start, err)
	}
	result.FixtureID = raw.Info.FixtureID
	observability.RecordPipelineRun(string(StateIngesting), "ok", time.Since(start).Seconds())

	// Phase 2: scoring and the durability checkpoint.
	o.transition(result, StateScoring)
	start = time.Now()
	analysis, err := o.builder.Build(raw)
	if err != nil {
		return o.fail(result, StateScoring, start, fmt.Errorf("scoring: %w", err))
	}
	if err := o.checkpoint(ctx, analysis); err != nil {
		return o.fail(result, StateScoring, start, err)
	}
	result.RunID = analysis.RunID
	result.AnalysisPath = o.artifactStore.Layout().AnalysisPath(analysis.FixtureID)
	observability.DefaultMetrics.AnalysesComputed.Inc()
	observability.RecordPipelineRun(string(StateScoring), "ok", time.Since(start).Seconds())
	o.logger.Info("analysis persisted",
		"fixture_id", analysis.FixtureID, "run_id", analysis.RunID,
		"home_total", analysis.HomeCPS.Total, "away_total", analysis.AwayCPS.Total)

	// Phase 3: output branches, concurrently. Failures are non-fatal.
	o.runBranches(ctx, analysis, result, true, true)

	// Optional analytics sink.
	o.appendHistory(ctx, analysis, result)

	o.transition(result, StateDone)
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	return result, nil
}

// runBranchOnly re-runs a single output branch from the persisted analysis.
// The provider is never consulted: a branch re-run must not spend quota.
func (o *Orchestrator) runBranchOnly(ctx context.Context, req Request, result *RunResult) (*RunResult, error) {
	if req.FixtureID == 0 {
		result.State = StateFailed
		return result, errors.New("branch re-run requires a fixture id")
	}
	result.FixtureID = req.FixtureID

	analysis, err := o.loadAnalysis(ctx, req.FixtureID)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("branch re-run: %w", err)
	}
	result.RunID = analysis.RunID
	result.AnalysisPath = o.artifactStore.Layout().AnalysisPath(analysis.FixtureID)

	o.runBranches(ctx, analysis, result, req.OnlyChart, req.OnlyReport)

	o.transition(result, StateDone)
	return result, nil
}

// runBranches executes the selected output branches concurrently and
// collects adapter failures.
func (o *Orchestrator) runBranches(ctx context.Context, analysis *domain.MatchAnalysis, result *RunResult, chart, report bool) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	record := func(adapter string, err error) {
		observability.RecordAdapterFailure(adapter)
		o.logger.Warn("adapter failed", "adapter", adapter, "fixture_id", analysis.FixtureID, "error", err)
		mu.Lock()
		result.AdapterFailures = append(result.AdapterFailures, AdapterFailure{Adapter: adapter, Err: err.Error()})
		mu.Unlock()
	}

	if chart {
		o.transition(result, StateVisualizing)
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			path := o.artifactStore.Layout().ChartPath(analysis.FixtureID)
			if err := o.renderer.RenderChart(analysis, path); err != nil {
				record(AdapterChart, err)
				observability.RecordPipelineRun(string(StateVisualizing), "failed", time.Since(start).Seconds())
				return
			}
			mu.Lock()
			result.ChartPath = path
			mu.Unlock()
			observability.DefaultMetrics.ChartsRendered.Inc()
			observability.RecordPipelineRun(string(StateVisualizing), "ok", time.Since(start).Seconds())
		}()
	}

	if report {
		o.transition(result, StateNarrating)
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			body, err := o.writer.WriteReport(ctx, analysis)
			if err != nil {
				record(AdapterReport, err)
				observability.RecordPipelineRun(string(StateNarrating), "failed", time.Since(start).Seconds())
				return
			}
			path := o.artifactStore.Layout().ReportPath(analysis.FixtureID)
			if err := o.artifactStore.WriteText(path, body); err != nil {
				record(AdapterReport, err)
				observability.RecordPipelineRun(string(StateNarrating), "failed", time.Since(start).Seconds())
				return
			}
			mu.Lock()
			result.ReportPath = path
			mu.Unlock()
			observability.DefaultMetrics.ReportsWritten.WithLabelValues(o.writer.Name()).Inc()
			observability.RecordPipelineRun(string(StateNarrating), "ok", time.Since(start).Seconds())
		}()
	}

	wg.Wait()
}

// ingest resolves the request to a fixture and fetches its raw match data.
func (o *Orchestrator) ingest(ctx context.Context, req Request) (*domain.RawMatch, error) {
	fixtureID := req.FixtureID
	if fixtureID == 0 {
		id, err := o.provider.LatestFixtureID(ctx, req.TeamID)
		if err != nil {
			return nil, fmt.Errorf("resolve latest fixture for team %d: %w", req.TeamID, err)
		}
		o.logger.Info("resolved latest fixture", "team_id", req.TeamID, "fixture_id", id)
		fixtureID = id
	}

	raw, err := o.provider.FetchMatch(ctx, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("ingest fixture %d: %w", fixtureID, err)
	}
	return raw, nil
}

// checkpoint persists the analysis to the store and the artifact tree.
// Both writes must succeed before any output branch may start.
func (o *Orchestrator) checkpoint(ctx context.Context, analysis *domain.MatchAnalysis) error {
	if err := o.analysisStore.Insert(ctx, analysis); err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}
	path := o.artifactStore.Layout().AnalysisPath(analysis.FixtureID)
	if err := o.artifactStore.WriteJSON(path, analysis); err != nil {
		return fmt.Errorf("write analysis artifact: %w", err)
	}
	return nil
}

// loadAnalysis retrieves the latest persisted analysis for a fixture,
// preferring the store and falling back to the artifact file.
func (o *Orchestrator) loadAnalysis(ctx context.Context, fixtureID int64) (*domain.MatchAnalysis, error) {
	analysis, err := o.analysisStore.GetLatestByFixture(ctx, fixtureID)
	if err == nil {
		return analysis, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load analysis for fixture %d: %w", fixtureID, err)
	}

	path := o.artifactStore.Layout().AnalysisPath(fixtureID)
	if !o.artifactStore.Exists(path) {
		return nil, fmt.Errorf("fixture %d has no persisted analysis: %w", fixtureID, storage.ErrNotFound)
	}
	var fromArtifact domain.MatchAnalysis
	if err := o.artifactStore.ReadJSON(path, &fromArtifact); err != nil {
		return nil, fmt.Errorf("read analysis artifact for fixture %d: %w", fixtureID, err)
	}
	return &fromArtifact, nil
}

// appendHistory pushes both teams' CPS rows to the analytics sink.
// Sink failures are non-fatal adapter failures.
func (o *Orchestrator) appendHistory(ctx context.Context, analysis *domain.MatchAnalysis, result *RunResult) {
	if o.historyStore == nil {
		return
	}
	rows := []*storage.ScoreHistoryRow{
		historyRow(analysis, domain.SideHome),
		historyRow(analysis, domain.SideAway),
	}
	if err := o.historyStore.InsertBulk(ctx, rows); err != nil {
		observability.RecordAdapterFailure(AdapterHistory)
		o.logger.Warn("adapter failed", "adapter", AdapterHistory, "fixture_id", analysis.FixtureID, "error", err)
		result.AdapterFailures = append(result.AdapterFailures, AdapterFailure{Adapter: AdapterHistory, Err: err.Error()})
	}
}

func historyRow(a *domain.MatchAnalysis, side domain.Side) *storage.ScoreHistoryRow {
	row := &storage.ScoreHistoryRow{
		FixtureID: a.FixtureID,
		RunID:     a.RunID,
		Side:      side,
		CreatedAt: a.CreatedAt,
	}
	if side == domain.SideHome {
		row.TeamID = a.Info.HomeTeamID
		row.Team = a.Info.HomeTeam
		row.Threat = a.HomeCPS.Threat
		row.Control = a.HomeCPS.Control
		row.Friction = a.HomeCPS.Friction
		row.Total = a.HomeCPS.Total
	} else {
		row.TeamID = a.Info.AwayTeamID
		row.Team = a.Info.AwayTeam
		row.Threat = a.AwayCPS.Threat
		row.Control = a.AwayCPS.Control
		row.Friction = a.AwayCPS.Friction
		row.Total = a.AwayCPS.Total
	}
	return row
}

func (o *Orchestrator) transition(result *RunResult, s State) {
	result.State = s
	result.Transitions = append(result.Transitions, s)
}

func (o *Orchestrator) fail(result *RunResult, phase State, start time.Time, err error) (*RunResult, error) {
	observability.RecordPipelineRun(string(phase), "failed", time.Since(start).Seconds())
	o.logger.Error("pipeline failed", "phase", string(phase), "error", err)
	o.transition(result, StateFailed)
	return result, err
}

func validateRequest(req Request) error {
	if req.FixtureID == 0 && req.TeamID == 0 {
		return errors.New("request needs a fixture id or a team id")
	}
	if req.FixtureID != 0 && req.TeamID != 0 {
		return errors.New("fixture id and team id are mutually exclusive")
	}
	if req.OnlyChart && req.OnlyReport {
		return errors.New("only-chart and only-report are mutually exclusive")
	}
	return nil
}
