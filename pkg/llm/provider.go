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

	"github.com/guardstack/guardstack/pkg/domain"
)

// Client issues one stateless text completion per call.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterises a completion provider.
type Config struct {
	Provider string
	Model    string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

const defaultTimeout = 60 * time.Second

// New constructs the client for the configured provider. Supported providers
// are "ollama", "openai", and "echo" (a loopback client for tests and dry
// runs). An unrecognised provider fails with domain.ErrProviderUnknown.
func New(cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ollama":
		return newOllamaClient(cfg), nil
	case "openai":
		return newOpenAIClient(cfg), nil
	case "echo":
		return EchoClient{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrProviderUnknown, cfg.Provider)
	}
}

// EchoClient returns the prompt unchanged. Useful for wiring tests and for
// exercising the session loop without a model backend.
type EchoClient struct{}

// Complete returns the prompt as the completion.
func (EchoClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prompt, nil
}

// ollamaClient talks to an Ollama generate endpoint.
type ollamaClient struct {
	endpoint string
	model    string
	http     *http.Client
}

func newOllamaClient(cfg Config) *ollamaClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &ollamaClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    cfg.Model,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *ollamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, c.http, c.endpoint+"/api/generate", "", payload, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// openaiClient talks to an OpenAI-compatible completions endpoint.
type openaiClient struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

func newOpenAIClient(cfg Config) *openaiClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	return &openaiClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
	}
	var out struct {
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, c.http, c.endpoint+"/v1/completions", c.apiKey, payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return out.Choices[0].Text, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode completion response: %w", err)
	}
	return nil
}
