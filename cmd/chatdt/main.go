// Package main provides the pipeline entry point.
// Executes: ingestion → scoring → {visualization, narrative}
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chatdt/internal/artifacts"
	"chatdt/internal/config"
	"chatdt/internal/ingestion"
	"chatdt/internal/narrative"
	"chatdt/internal/observability"
	"chatdt/internal/orchestrator"
	"chatdt/internal/reporting"
	"chatdt/internal/scoring"
	"chatdt/internal/storage"
	"chatdt/internal/storage/clickhouse"
	"chatdt/internal/storage/memory"
	"chatdt/internal/storage/migrations"
	"chatdt/internal/storage/postgres"
	"chatdt/internal/visualization"
)

func main() {
	fixtureID := flag.Int64("fixture", 0, "Fixture ID to analyze")
	teamID := flag.Int64("team", 0, "Team ID; analyzes the team's latest finished fixture")
	onlyChart := flag.Bool("only-chart", false, "Re-run only the chart branch from the persisted analysis")
	onlyReport := flag.Bool("only-report", false, "Re-run only the report branch from the persisted analysis")
	h2h := flag.String("h2h", "", "Print head-to-head history for two team IDs, e.g. 451-435")
	exportCSV := flag.Bool("export-csv", false, "Export all persisted analyses for --fixture as CSV and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling run", "signal", sig.String())
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setup error: %v\n", err)
		os.Exit(1)
	}
	defer app.cleanup()

	if *h2h != "" {
		if err := printHeadToHead(ctx, cfg, *h2h); err != nil {
			fmt.Fprintf(os.Stderr, "Head-to-head error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *exportCSV {
		if err := exportFixtureCSV(ctx, app, *fixtureID); err != nil {
			fmt.Fprintf(os.Stderr, "Export error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	result, err := app.orch.Run(ctx, orchestrator.Request{
		FixtureID:  *fixtureID,
		TeamID:     *teamID,
		OnlyChart:  *onlyChart,
		OnlyReport: *onlyReport,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
}

// app bundles the wired components; cleanup closes database connections.
type app struct {
	orch     *orchestrator.Orchestrator
	analyses storage.AnalysisStore
	store    *artifacts.Store
	cleanup  func()
}

// buildApp wires stores, provider and adapters from config.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store := artifacts.NewStore(artifacts.NewLayout(cfg.DataDir))

	client := ingestion.NewAPIFootballClient(cfg.APIFootballKey, cfg.LeagueID, cfg.Season,
		ingestion.WithRequestsPerMinute(cfg.RequestsPerMinute))
	provider := ingestion.NewCachedProvider(client, store)

	writer, err := narrative.New(narrative.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.NarrativeAPIKey(),
		Model:    cfg.LLMModel,
	}, logger)
	if err != nil {
		return nil, err
	}

	cleanup := func() {}
	var analysisStore storage.AnalysisStore = memory.NewAnalysisStore()
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		analysisStore = postgres.NewAnalysisStore(pool)
		cleanup = pool.Close
		logger.Info("using postgres analysis store")
	} else {
		logger.Info("using in-memory analysis store; analyses persist as artifacts only")
	}

	var historyStore storage.ScoreHistoryStore
	if cfg.ClickhouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			cleanup()
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		historyStore = clickhouse.NewScoreHistoryStore(conn)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
		logger.Info("score history sink enabled")
	}

	orch := orchestrator.New(orchestrator.Options{
		Provider:      provider,
		Builder:       scoring.NewBuilder(scoring.NewDefaultEngine()),
		AnalysisStore: analysisStore,
		ArtifactStore: store,
		Renderer:      visualization.NewBarChartRenderer(store),
		Writer:        writer,
		HistoryStore:  historyStore,
		Logger:        logger,
	})
	return &app{orch: orch, analyses: analysisStore, store: store, cleanup: cleanup}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

// exportFixtureCSV writes all persisted analyses for a fixture as a CSV
// artifact next to the reports.
func exportFixtureCSV(ctx context.Context, a *app, fixtureID int64) error {
	if fixtureID == 0 {
		return fmt.Errorf("export requires --fixture")
	}
	analyses, err := a.analyses.GetByFixture(ctx, fixtureID)
	if err != nil {
		return fmt.Errorf("load analyses for fixture %d: %w", fixtureID, err)
	}
	if len(analyses) == 0 {
		return fmt.Errorf("fixture %d has no persisted analyses", fixtureID)
	}

	path := strings.TrimSuffix(a.store.Layout().ReportPath(fixtureID), ".md") + ".csv"
	if err := a.store.WriteText(path, reporting.RenderAnalysesCSV(analyses)); err != nil {
		return err
	}
	fmt.Printf("Exported %d analysis run(s) for fixture %d to %s\n", len(analyses), fixtureID, path)
	return nil
}

// printHeadToHead lists all finished meetings between two teams.
func printHeadToHead(ctx context.Context, cfg *config.Config, pair string) error {
	var teamA, teamB int64
	if _, err := fmt.Sscanf(pair, "%d-%d", &teamA, &teamB); err != nil {
		return fmt.Errorf("parse team pair %q: %w", pair, err)
	}

	client := ingestion.NewAPIFootballClient(cfg.APIFootballKey, cfg.LeagueID, cfg.Season,
		ingestion.WithRequestsPerMinute(cfg.RequestsPerMinute))
	meetings, err := client.HeadToHead(ctx, teamA, teamB)
	if err != nil {
		return err
	}

	fmt.Printf("Head-to-head %d vs %d: %d meeting(s)\n", teamA, teamB, len(meetings))
	for _, m := range meetings {
		fmt.Printf("  %s  %s %d-%d %s  (fixture %d)\n",
			m.Date, m.HomeTeam, m.HomeGoals, m.AwayGoals, m.AwayTeam, m.FixtureID)
	}
	return nil
}

func printResult(result *orchestrator.RunResult) {
	fmt.Printf("Run completed: fixture=%d run=%s state=%s\n", result.FixtureID, result.RunID, result.State)
	if result.AnalysisPath != "" {
		fmt.Printf("  Analysis: %s\n", result.AnalysisPath)
	}
	if result.ChartPath != "" {
		fmt.Printf("  Chart:    %s\n", result.ChartPath)
	}
	if result.ReportPath != "" {
		fmt.Printf("  Report:   %s\n", result.ReportPath)
	}
	if len(result.AdapterFailures) > 0 {
		fmt.Printf("  Degraded: %d adapter failure(s)\n", len(result.AdapterFailures))
		for _, f := range result.AdapterFailures {
			fmt.Printf("    - %s: %s\n", f.Adapter, f.Err)
		}
	}
}
