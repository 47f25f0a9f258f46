package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama2"
)

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Ollama struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllama talks to a local Ollama server. An empty BaseURL leaves the
// client unconfigured.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return &Ollama{baseURL: base, model: cfg.Model, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Ollama) Name() string { return "Ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *Ollama) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%s: %w", c.Name(), ErrNotConfigured)
	}
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Format: "json"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(c.Name(), fmt.Errorf("server unreachable at %s: %w", c.baseURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, httpError(c.Name(), resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, decodeError(c.Name(), err)
	}
	if out.Error != "" {
		return nil, &StatusError{Provider: c.Name(), Body: out.Error, Err: fmt.Errorf("ollama error: %s", out.Error)}
	}
	return jsonContent(c.Name(), out.Response)
}
