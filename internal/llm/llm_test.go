package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/coderag/internal/ratelimit"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")
	ctx := context.Background()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := mock.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	if mock.Calls[0].Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", mock.Calls[0].Model)
	}
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	_, err := NewProvider("openai", "", "gpt-4o-mini", "")
	if err == nil {
		t.Error("expected error for openai with no key and no base URL")
	}
}

func TestFactoryAllowsKeylessCompatibleServer(t *testing.T) {
	provider, err := NewProvider("openai", "http://localhost:1234/v1", "local-model", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "", "some-model", "")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryRequiresModel(t *testing.T) {
	_, err := NewProvider("ollama", "", "", "")
	if err == nil {
		t.Error("expected error for empty model")
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	provider, err := NewProvider("ollama", "", "llama3.1:8b", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != "http://localhost:11434" {
		t.Errorf("expected default host, got %q", ollamaP.baseURL)
	}
}

func TestFactoryTrimsOllamaHost(t *testing.T) {
	provider, err := NewProvider("ollama", "http://gpu-box:11434/", "llama3.1:8b", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := provider.(*OllamaProvider).baseURL; got != "http://gpu-box:11434" {
		t.Errorf("baseURL = %q", got)
	}
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.1:8b","message":{"role":"assistant","content":"It loads config [1]."},"done":true,"done_reason":"stop","prompt_eval_count":40,"eval_count":7}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.1:8b")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "answer from context"},
			{Role: RoleUser, Content: "what does main do?"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "It loads config [1]." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "llama3.1:8b" || resp.FinishReason != "stop" {
		t.Errorf("model/finish = %q/%q", resp.Model, resp.FinishReason)
	}
	if got.Stream {
		t.Error("expected non-streaming request")
	}
	if got.Model != "llama3.1:8b" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestOllamaCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestOpenAIComplete(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"See [2]."},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "See [2]." || resp.FinishReason != "stop" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", resp.Model)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("k", srv.URL, "m").Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, ratelimit.New(100))

	ctx := context.Background()
	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := rl.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterNilLimiter(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, nil)
	for i := 0; i < 3; i++ {
		if _, err := rl.Complete(context.Background(), CompletionRequest{}); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// One request every two seconds.
	rl := NewRateLimitedProvider(mock, ratelimit.New(0.5))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	if _, err := rl.Complete(ctx, req); err != nil {
		t.Fatalf("first request: unexpected error: %v", err)
	}

	_, err := rl.Complete(ctx, req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected the limited call not to reach the provider, got %d calls", mock.CallCount())
	}
}

func TestRoles(t *testing.T) {
	if RoleSystem != "system" {
		t.Errorf("RoleSystem = %q, want 'system'", RoleSystem)
	}
	if RoleUser != "user" {
		t.Errorf("RoleUser = %q, want 'user'", RoleUser)
	}
}
