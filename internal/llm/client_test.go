package llm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientAnthropicAuth(t *testing.T) {
	var gotKey, gotVersion, gotBearer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotBearer = r.Header.Get("Authorization")
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(BackendAnthropic, srv.URL, "sk-test", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Send(context.Background(), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if gotKey != "sk-test" || gotVersion != "2023-06-01" {
		t.Errorf("anthropic auth headers = %q / %q", gotKey, gotVersion)
	}
	if gotBearer != "" {
		t.Errorf("anthropic request must not carry Authorization, got %q", gotBearer)
	}
}

func TestClientBearerAuth(t *testing.T) {
	var gotBearer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBearer = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(BackendOpenRouter, srv.URL, "or-test", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Send(context.Background(), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if gotBearer != "Bearer or-test" {
		t.Errorf("Authorization = %q", gotBearer)
	}
}

func TestClientServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(BackendOpenAI, srv.URL, "k", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Send(context.Background(), []byte(`{}`)); err == nil {
		t.Error("expected error for HTTP 503")
	}
}

func TestClientAPIErrorBodyPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(BackendAnthropic, srv.URL, "k", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := c.Send(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("4xx with a parseable body should not be a transport error: %v", err)
	}
	if !strings.Contains(string(raw), "invalid model") {
		t.Errorf("body = %q", raw)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(BackendAnthropic, "", "", time.Second, testLogger()); err == nil {
		t.Error("anthropic without key should fail")
	}
	if _, err := NewClient(BackendOllama, "", "", time.Second, testLogger()); err != nil {
		t.Errorf("ollama without key should be fine: %v", err)
	}
	long := strings.Repeat("k", MaxAPIKeyLen+1)
	if _, err := NewClient(BackendOpenAI, "", long, time.Second, testLogger()); err == nil {
		t.Error("oversized key should fail")
	}
}
