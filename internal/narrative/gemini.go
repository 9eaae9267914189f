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
)

// DefaultGeminiBaseURL is the public Gemini API endpoint (no trailing slash).
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Generator produces a narrative from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	BaseURL string
	APIKey  string
	Model   string

	// MaxOutputTokens caps the reply length. Zero lets the API decide.
	MaxOutputTokens int

	HTTPClient *http.Client
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient returns a client for model. An empty baseURL selects
// DefaultGeminiBaseURL.
func NewGeminiClient(baseURL, apiKey, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		APIKey:          apiKey,
		Model:           model,
		MaxOutputTokens: 1024,
		HTTPClient:      &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// Generate sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if c.MaxOutputTokens > 0 {
		req.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: c.MaxOutputTokens}
	}

	var resp geminiResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.Model)
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates", ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini: %w: finish reason %q", ErrEmptyResponse, resp.Candidates[0].FinishReason)
	}
	return text, nil
}

func (c *GeminiClient) postJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
