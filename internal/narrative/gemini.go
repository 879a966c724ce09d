package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatdt/internal/domain"
)

// Gemini defaults.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash-lite"
)

// GeminiWriter generates reports through the Gemini generateContent API.
type GeminiWriter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// GeminiOption configures GeminiWriter.
type GeminiOption func(*GeminiWriter)

// WithGeminiBaseURL overrides the API endpoint (used by tests).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(w *GeminiWriter) { w.baseURL = strings.TrimRight(u, "/") }
}

// WithGeminiModel overrides the model name.
func WithGeminiModel(model string) GeminiOption {
	return func(w *GeminiWriter) { w.model = model }
}

// WithGeminiHTTPClient sets a custom http.Client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(w *GeminiWriter) { w.client = client }
}

// NewGeminiWriter creates a GeminiWriter.
func NewGeminiWriter(apiKey string, opts ...GeminiOption) *GeminiWriter {
	w := &GeminiWriter{
		baseURL: DefaultGeminiBaseURL,
		apiKey:  apiKey,
		model:   DefaultGeminiModel,
		client:  &http.Client{Timeout: defaultLLMTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ Writer = (*GeminiWriter)(nil)

func (w *GeminiWriter) Name() string { return "gemini" }

type geminiRequest struct {
	SystemInstruction *geminiContent `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// WriteReport calls the generateContent endpoint with the analysis prompt.
func (w *GeminiWriter) WriteReport(ctx context.Context, a *domain.MatchAnalysis) (string, error) {
	if a == nil {
		return "", errors.New("gemini report: nil analysis")
	}

	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: userPrompt(a)}}}},
	}
	payload.GenerationConfig.Temperature = defaultTemperature
	payload.GenerationConfig.MaxOutputTokens = defaultMaxTokens

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini report: encode request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s", w.baseURL, w.model, w.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini report: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini report: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini report: read response: %w", err)
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("gemini report: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gemini report: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini report: status %d", resp.StatusCode)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini report: empty candidate")
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", errors.New("gemini report: empty candidate")
	}
	return b.String(), nil
}
