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
	"time"

	"chatdt/internal/domain"
)

// Groq defaults. The API is OpenAI-compatible.
const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	defaultLLMTimeout  = 60 * time.Second
	defaultTemperature = 0.7
	defaultMaxTokens   = 1500
)

// GroqWriter generates reports through the Groq chat completions API.
type GroqWriter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// GroqOption configures GroqWriter.
type GroqOption func(*GroqWriter)

// WithGroqBaseURL overrides the API endpoint (used by tests).
func WithGroqBaseURL(u string) GroqOption {
	return func(w *GroqWriter) { w.baseURL = strings.TrimRight(u, "/") }
}

// WithGroqModel overrides the model name.
func WithGroqModel(model string) GroqOption {
	return func(w *GroqWriter) { w.model = model }
}

// WithGroqHTTPClient sets a custom http.Client.
func WithGroqHTTPClient(client *http.Client) GroqOption {
	return func(w *GroqWriter) { w.client = client }
}

// NewGroqWriter creates a GroqWriter.
func NewGroqWriter(apiKey string, opts ...GroqOption) *GroqWriter {
	w := &GroqWriter{
		baseURL: DefaultGroqBaseURL,
		apiKey:  apiKey,
		model:   DefaultGroqModel,
		client:  &http.Client{Timeout: defaultLLMTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ Writer = (*GroqWriter)(nil)

func (w *GroqWriter) Name() string { return "groq" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// WriteReport calls the chat completions endpoint with the analysis prompt.
func (w *GroqWriter) WriteReport(ctx context.Context, a *domain.MatchAnalysis) (string, error) {
	if a == nil {
		return "", errors.New("groq report: nil analysis")
	}

	payload := chatRequest{
		Model: w.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(a)},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("groq report: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq report: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq report: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("groq report: read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("groq report: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("groq report: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq report: status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("groq report: empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
