package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"chatdt/internal/domain"
)

// Config selects and configures the report writer.
type Config struct {
	// Provider is one of "groq", "gemini", "basic".
	Provider string
	// APIKey is the provider key. Empty key degrades to the basic writer.
	APIKey string
	// Model overrides the provider default model when non-empty.
	Model string
}

// New builds the writer named by cfg, wrapped with the basic fallback. An
// LLM provider with no API key degrades to the basic writer instead of
// failing.
func New(cfg Config, logger *slog.Logger) (Writer, error) {
	basic := NewBasicWriter()

	switch cfg.Provider {
	case "basic", "":
		return basic, nil
	case "groq":
		if cfg.APIKey == "" {
			logger.Warn("no API key configured, using basic report writer", "provider", cfg.Provider)
			return basic, nil
		}
		opts := []GroqOption{}
		if cfg.Model != "" {
			opts = append(opts, WithGroqModel(cfg.Model))
		}
		return NewFallbackWriter(NewGroqWriter(cfg.APIKey, opts...), basic, logger), nil
	case "gemini":
		if cfg.APIKey == "" {
			logger.Warn("no API key configured, using basic report writer", "provider", cfg.Provider)
			return basic, nil
		}
		opts := []GeminiOption{}
		if cfg.Model != "" {
			opts = append(opts, WithGeminiModel(cfg.Model))
		}
		return NewFallbackWriter(NewGeminiWriter(cfg.APIKey, opts...), basic, logger), nil
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", cfg.Provider)
	}
}

// FallbackWriter tries a primary writer and degrades to a fallback when the
// primary fails. A degraded report is still a successful report.
type FallbackWriter struct {
	primary  Writer
	fallback Writer
	logger   *slog.Logger
}

// NewFallbackWriter wraps primary with fallback.
func NewFallbackWriter(primary, fallback Writer, logger *slog.Logger) *FallbackWriter {
	return &FallbackWriter{primary: primary, fallback: fallback, logger: logger}
}

var _ Writer = (*FallbackWriter)(nil)

func (w *FallbackWriter) Name() string { return w.primary.Name() }

func (w *FallbackWriter) WriteReport(ctx context.Context, a *domain.MatchAnalysis) (string, error) {
	report, err := w.primary.WriteReport(ctx, a)
	if err == nil {
		return report, nil
	}
	w.logger.Warn("report writer failed, degrading to fallback",
		"primary", w.primary.Name(), "fallback", w.fallback.Name(), "error", err)
	return w.fallback.WriteReport(ctx, a)
}
