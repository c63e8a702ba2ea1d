package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestGenerator_Generate(t *testing.T) {
	var got GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GenerateResponse{Model: got.Model, Response: "Tutto ok 🟢", Done: true})
	}))
	defer server.Close()

	g := NewGenerator(NewClient(server.URL, time.Second), "llama3.2:3b", Options{Temperature: 0.7, TopP: 0.9, NumCtx: 3072})
	text, err := g.Generate(context.Background(), "Come sta il NAS?")
	require.NoError(t, err)

	assert.Equal(t, "Tutto ok 🟢", text)
	assert.Equal(t, "llama3.2:3b", got.Model)
	assert.Equal(t, g.Model(), got.Model)
	assert.Equal(t, "Come sta il NAS?", got.Prompt)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 3072, got.Options.NumCtx)
	assert.InDelta(t, 0.7, got.Options.Temperature, 1e-9)
	assert.InDelta(t, 0.9, got.Options.TopP, 1e-9)
}

func TestGenerator_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","response":"","done":true}`))
	}))
	defer server.Close()

	g := NewGenerator(NewClient(server.URL, time.Second), "m", Options{})
	_, err := g.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_Generate_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2:3b' not found"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Generate(context.Background(), &GenerateRequest{Model: "llama3.2:3b"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "model 'llama3.2:3b' not found", apiErr.Message)
}

func TestClient_Generate_StatusWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Generate(context.Background(), &GenerateRequest{Model: "m"})
	assert.ErrorContains(t, err, "status 502")
}

func TestClient_Generate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 20*time.Millisecond).Generate(context.Background(), &GenerateRequest{Model: "m"})
	assert.Error(t, err)
}

func TestClient_NetworkError(t *testing.T) {
	c := NewClient("http://localhost:1", time.Second) // port 1 always refuses
	_, err := c.Generate(context.Background(), &GenerateRequest{Model: "m"})
	assert.Error(t, err)
}

func TestClient_Generate_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy error</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Generate(context.Background(), &GenerateRequest{Model: "m"})
	assert.ErrorContains(t, err, "decode response")
}
