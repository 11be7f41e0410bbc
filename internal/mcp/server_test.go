package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/coderag/internal/embeddings"
	"github.com/ziadkadry99/coderag/internal/llm"
	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

// mockEmbedder implements embeddings.Embedder for testing.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{0, 1, 0}, nil
}
func (m *mockEmbedder) Name() string { return "mock" }

// mockStore implements vectordb.VectorSink for testing.
type mockStore struct {
	hits  []vectordb.Hit
	lastK int
}

func (m *mockStore) Upsert(_ context.Context, _ []vectordb.Entry) error { return nil }
func (m *mockStore) DeleteByFileHash(_ context.Context, _ string) error  { return nil }
func (m *mockStore) Reset(_ context.Context) error                       { return nil }
func (m *mockStore) Close() error                                        { return nil }
func (m *mockStore) Count(_ context.Context) (int, error)                { return len(m.hits), nil }

func (m *mockStore) QueryByVector(_ context.Context, _ []float32, k int) ([]vectordb.Hit, error) {
	m.lastK = k
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockStore) QueryByText(_ context.Context, _ string, _ int) ([]vectordb.Hit, error) {
	return nil, vectordb.ErrTextQueryUnsupported
}

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	err error
}

func (p *mockProvider) Name() string { return "mock" }

func (p *mockProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: "The entry point is main [1]."}, nil
}

func testHits() []vectordb.Hit {
	return []vectordb.Hit{
		{
			ID:   "h1:0:0",
			Text: "Package main provides the entry point.",
			Metadata: vectordb.Metadata{
				SourcePath: "/repo/main.go",
				Filename:   "main.go",
				Language:   "go",
				LineStart:  1,
				LineEnd:    10,
			},
			Similarity: 0.95,
		},
		{
			ID:   "h2:0:0",
			Text: "func handleRequest processes HTTP requests.",
			Metadata: vectordb.Metadata{
				SourcePath: "/repo/handler.go",
				Filename:   "handler.go",
				Language:   "go",
				LineStart:  15,
				LineEnd:    30,
			},
			Similarity: 0.81,
		},
	}
}

func newTestServer(store *mockStore, provider llm.Provider) *Server {
	sched := embeddings.NewScheduler(&mockEmbedder{}, embeddings.SchedulerConfig{Retry: embeddings.NoRetry()})
	answerer := rag.New(rag.Options{Store: store, Scheduler: sched, Provider: provider, Model: "mock"})
	return NewServer(answerer, store, 6)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestToolDefinitions(t *testing.T) {
	// Verify tool names and required properties.
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"ask_codebase", askCodebaseTool, "ask_codebase"},
		{"search_codebase", searchCodebaseTool, "search_codebase"},
		{"index_status", indexStatusTool, "index_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	store := &mockStore{}
	srv := newTestServer(store, nil)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.topK != 6 {
		t.Errorf("topK = %d, want 6", srv.topK)
	}

	if got := NewServer(srv.answerer, store, 0).topK; got != 6 {
		t.Errorf("default topK = %d, want 6", got)
	}
}

func TestHandleSearchCodebase(t *testing.T) {
	store := &mockStore{hits: testHits()}
	srv := newTestServer(store, nil)
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "entry point",
		}

		result, err := srv.handleSearchCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "[1] main.go — /repo/main.go") || !strings.Contains(text, "Lines: 15-30") {
			t.Errorf("unexpected result text:\n%s", text)
		}
	})

	t.Run("limit is passed through", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "handler",
			"limit": float64(1),
		}

		result, err := srv.handleSearchCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if store.lastK != 1 {
			t.Errorf("k = %d, want 1", store.lastK)
		}
	})

	t.Run("limit is capped", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "handler",
			"limit": float64(1000),
		}

		if _, err := srv.handleSearchCodebase(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.lastK != maxResults {
			t.Errorf("k = %d, want %d", store.lastK, maxResults)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		emptySrv := newTestServer(&mockStore{}, nil)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"query": "anything",
		}

		result, err := emptySrv.handleSearchCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty store should not be a tool error")
		}
		if !strings.Contains(resultText(t, result), "No results found") {
			t.Errorf("unexpected text: %s", resultText(t, result))
		}
	})
}

func TestHandleAskCodebase(t *testing.T) {
	ctx := context.Background()

	t.Run("answer with sources", func(t *testing.T) {
		srv := newTestServer(&mockStore{hits: testHits()}, &mockProvider{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"question": "where is the entry point?",
		}

		result, err := srv.handleAskCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.HasPrefix(text, "The entry point is main [1].") {
			t.Errorf("unexpected answer: %s", text)
		}
		if !strings.Contains(text, "Sources:\n[1] main.go — /repo/main.go\n[2] handler.go — /repo/handler.go") {
			t.Errorf("missing sources: %s", text)
		}
	})

	t.Run("chat failure is a tool error", func(t *testing.T) {
		srv := newTestServer(&mockStore{hits: testHits()}, &mockProvider{err: errors.New("model not found")})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"question": "where is the entry point?",
		}

		result, err := srv.handleAskCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error")
		}
	})

	t.Run("missing question", func(t *testing.T) {
		srv := newTestServer(&mockStore{}, &mockProvider{})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"question": "  "}

		result, err := srv.handleAskCodebase(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for blank question")
		}
	})
}

func TestHandleIndexStatus(t *testing.T) {
	srv := newTestServer(&mockStore{hits: testHits()}, nil)
	result, err := srv.handleIndexStatus(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, result); got != "2 chunks indexed" {
		t.Errorf("text = %q", got)
	}
}
