package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardstack/guardstack/pkg/domain"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "mystery"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnknown)
}

func TestEchoClient(t *testing.T) {
	client, err := New(Config{Provider: "echo"})
	require.NoError(t, err)

	result, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestEchoClientHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := New(Config{Provider: "echo"})
	require.NoError(t, err)

	_, err = client.Complete(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		assert.Equal(t, "the prompt", req["prompt"])
		assert.Equal(t, false, req["stream"])

		_ = json.NewEncoder(w).Encode(map[string]any{"response": "the completion"})
	}))
	defer server.Close()

	client, err := New(Config{Provider: "ollama", Model: "llama3", Endpoint: server.URL})
	require.NoError(t, err)

	result, err := client.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "the completion", result)
}

func TestOpenAIClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"text": "the completion"}},
		})
	}))
	defer server.Close()

	client, err := New(Config{Provider: "openai", Model: "gpt-3.5-turbo-instruct", Endpoint: server.URL, APIKey: "sk-test"})
	require.NoError(t, err)

	result, err := client.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "the completion", result)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client, err := New(Config{Provider: "openai", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "the prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompletionEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(Config{Provider: "ollama", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "the prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}
