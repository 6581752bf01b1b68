package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apptik-go/jus/pkg/config"
)

func testCLI(t *testing.T) *CLI {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.CacheDir = t.TempDir()
	cfg.NetworkThreadPoolSize = 1
	return &CLI{Config: cfg}
}

func TestRunGet_PrintsResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello from origin"))
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := runGet(testCLI(t), server.URL, true, &out); err != nil {
		t.Fatalf("runGet: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "hello from origin" {
		t.Errorf("output = %q, want hello from origin", got)
	}
}

func TestRunGet_PropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testCLI(t)
	c.Config.DefaultMaxRetries = 0
	var out bytes.Buffer
	if err := runGet(c, server.URL, true, &out); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
