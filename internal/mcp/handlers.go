package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

const maxResults = 50

// handleAskCodebase retrieves context and asks the chat model.
func (s *Server) handleAskCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.answerer.Answer(ctx, question, s.limit(request.GetInt("top_k", s.topK)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(ans.Text)
	if len(ans.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		sb.WriteString(rag.FormatSources(ans.Sources))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchCodebase returns the nearest chunks without calling the chat model.
func (s *Server) handleSearchCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	hits, err := s.answerer.Retrieve(ctx, query, s.limit(request.GetInt("limit", s.topK)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found. The index may be empty. Run `coderag ingest` to build it."), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(hits)), nil
}

func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d chunks indexed", n)), nil
}

func (s *Server) limit(n int) int {
	if n <= 0 {
		return s.topK
	}
	if n > maxResults {
		return maxResults
	}
	return n
}
