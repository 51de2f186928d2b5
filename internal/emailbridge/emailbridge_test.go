package emailbridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendPostsToBridge(t *testing.T) {
	var gotPath, gotAuth, gotKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Zclaw-Bridge-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("queued\nextra detail\n"))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "bridge-key", testLogger())
	got, err := c.Send(context.Background(), "a@example.com", "Hi", "Body text")
	if err != nil {
		t.Fatal(err)
	}
	if got != "queued" {
		t.Errorf("response = %q, want first line only", got)
	}
	if gotPath != "/v1/email/send" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer bridge-key" || gotKey != "bridge-key" {
		t.Errorf("auth headers = %q / %q", gotAuth, gotKey)
	}
	if gotBody["to"] != "a@example.com" || gotBody["subject"] != "Hi" {
		t.Errorf("payload = %v", gotBody)
	}
}

func TestSendBridgeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", testLogger())
	if _, err := c.Send(context.Background(), "x", "s", "b"); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestUnconfiguredBridge(t *testing.T) {
	c := New("", "", testLogger())
	if c.Configured() {
		t.Error("empty bridge should not report configured")
	}
	if _, err := c.Send(context.Background(), "x", "s", "b"); err == nil {
		t.Error("unconfigured bridge should refuse to send")
	}
}
