// Package advisor implements the three-stage LLM advisory pipeline
// (forecaster, critic, trader) backed by an Ollama-compatible completion
// endpoint. Every stage degrades to a conservative default when the model is
// unreachable or returns malformed output; the pipeline itself never blocks a
// trading cycle with an error.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Completion is the raw model output plus its provenance.
type Completion struct {
	Text  string
	Model string
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// OllamaClient talks to an Ollama-compatible /api/generate endpoint.
type OllamaClient struct {
	host   string
	model  string
	client *http.Client
}

var _ Completer = (*OllamaClient)(nil)

// NewOllamaClient creates a client for the given host and model. Timeout
// defaults to 30s when unset.
func NewOllamaClient(host, model string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Complete runs a non-streaming generation. The returned error indicates the
// endpoint was unreachable or answered non-200; callers are expected to fall
// back to their offline defaults.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	body, err := json.Marshal(generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: 0.2,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("advisor: marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("advisor: build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("advisor: generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("advisor: generate: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Completion{}, fmt.Errorf("advisor: decode generate response: %w", err)
	}

	text := out.Response
	if text == "" {
		text = out.Message
	}
	return Completion{Text: text, Model: c.model}, nil
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.model
}

// offlineModel tags degraded output with its would-be provenance.
func offlineModel(model string) string {
	return "offline-" + model
}

// truncate caps degraded rationale text carried over from raw model output.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
