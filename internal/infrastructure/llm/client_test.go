package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/schemaforge/backend/pkg/errors"
)

func TestGenerateSuccess(t *testing.T) {
	var gotAPIKey, gotVersion string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"SELECT 1"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})

	sql, err := client.Generate(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if sql != "SELECT 1" {
		t.Errorf("sql = %q", sql)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("x-api-key = %q", gotAPIKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	msgs, ok := gotBody["messages"].([]interface{})
	if !ok || len(msgs) != 1 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	msg := msgs[0].(map[string]interface{})
	if msg["role"] != "user" || msg["content"] != "prompt text" {
		t.Errorf("message = %v", msg)
	}
}

func TestGenerateMissingAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Generate(context.Background(), "prompt")
	if !apperrors.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}

func TestGenerateUpstreamErrorNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"api_error"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"})

	_, err := client.Generate(context.Background(), "prompt")
	if !apperrors.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("upstream failure should be terminal, got %d calls", calls)
	}
}

func TestGenerateNoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"})

	_, err := client.Generate(context.Background(), "prompt")
	if !apperrors.IsUpstream(err) {
		t.Errorf("expected UpstreamError for envelope without text, got %v", err)
	}
}

func TestGenerateMalformedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k"})

	_, err := client.Generate(context.Background(), "prompt")
	if !apperrors.IsUpstream(err) {
		t.Errorf("expected UpstreamError for malformed envelope, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"content":[{"type":"text","text":"late"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "k", Timeout: 50 * time.Millisecond})

	_, err := client.Generate(context.Background(), "prompt")
	if !apperrors.IsTimeout(err) {
		t.Errorf("expected TimeoutError, got %v", err)
	}
}
