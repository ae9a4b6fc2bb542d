package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/livekeyterms/internal/observe"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type capturedRequest struct {
	Auth string
	Path string
	Body map[string]any
}

func newChatServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		captured = append(captured, capturedRequest{Auth: r.Header.Get("Authorization"), Path: r.URL.Path, Body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

const okResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "claude-sonnet-4-5-20250929",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "[\"Siobhan\"]"}, "finish_reason": "stop"}]
}`

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		wantURL string
	}{
		{name: "assemblyai default", cfg: Config{Provider: "assemblyai", APIKey: "k"}, wantURL: "https://llm-gateway.assemblyai.com/v1"},
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "sk-k"}, wantURL: "https://api.openai.com/v1"},
		{name: "groq override", cfg: Config{Provider: "groq", APIKey: "gsk_k", BaseURL: "http://localhost:1234/v1"}, wantURL: "http://localhost:1234/v1"},
		{name: "unknown provider", cfg: Config{Provider: "mistral", APIKey: "k"}, wantErr: true},
		{name: "missing key", cfg: Config{Provider: "openai"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdapter(tc.cfg, WithMetrics(testMetrics(t)))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAdapter() error = %v", err)
			}
			if a.config.BaseURL != tc.wantURL {
				t.Errorf("BaseURL = %q, want %q", a.config.BaseURL, tc.wantURL)
			}
			if a.config.Model == "" {
				t.Error("Model should default from provider")
			}
		})
	}
}

func TestGenerate_Success(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, okResponse)

	a, err := NewAdapter(Config{
		Provider: "assemblyai",
		APIKey:   "secret-key",
		Model:    "claude-sonnet-4-5-20250929",
		BaseURL:  srv.URL + "/v1",
		Timeout:  5 * time.Second,
	}, WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	got, err := a.Generate(context.Background(), "extract keyterms", 1500)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != `["Siobhan"]` {
		t.Errorf("Generate() = %q", got)
	}

	if len(*captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*captured))
	}
	req := (*captured)[0]
	if req.Auth != "secret-key" {
		t.Errorf("Authorization = %q, want bare key", req.Auth)
	}
	if req.Path != "/v1/chat/completions" {
		t.Errorf("path = %q", req.Path)
	}
	if req.Body["model"] != "claude-sonnet-4-5-20250929" {
		t.Errorf("model = %v", req.Body["model"])
	}
	if req.Body["max_tokens"] != float64(1500) {
		t.Errorf("max_tokens = %v", req.Body["max_tokens"])
	}
	msgs, _ := req.Body["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v", req.Body["messages"])
	}
	msg := msgs[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "extract keyterms" {
		t.Errorf("message = %v", msg)
	}
}

func TestGenerate_BearerForOpenAI(t *testing.T) {
	srv, captured := newChatServer(t, http.StatusOK, okResponse)

	a, err := NewAdapter(Config{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, err := a.Generate(context.Background(), "p", 10); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := (*captured)[0].Auth; got != "Bearer sk-test" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		contains string
	}{
		{"server error", http.StatusInternalServerError, `{"error": {"message": "upstream down"}}`, "chat completion"},
		{"unauthorized", http.StatusUnauthorized, `{"error": {"message": "bad key"}}`, "chat completion"},
		{"no choices", http.StatusOK, `{"id": "x", "choices": []}`, "no response choices"},
		{"malformed body", http.StatusOK, `not json`, "chat completion"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newChatServer(t, tc.status, tc.response)
			a, err := NewAdapter(Config{Provider: "groq", APIKey: "gsk_x", BaseURL: srv.URL + "/v1"}, WithMetrics(testMetrics(t)))
			if err != nil {
				t.Fatalf("NewAdapter: %v", err)
			}

			got, err := a.Generate(context.Background(), "p", 10)
			if err == nil {
				t.Fatalf("expected error, got %q", got)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("error %q should contain %q", err, tc.contains)
			}
		})
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	a, err := NewAdapter(Config{Provider: "openai", APIKey: "sk-x", BaseURL: srv.URL + "/v1"}, WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := a.Generate(ctx, "p", 10); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
