package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askCodebaseTool defines the ask_codebase MCP tool.
var askCodebaseTool = mcp.NewTool("ask_codebase",
	mcp.WithDescription("Answer a question about the indexed code and documents. The answer cites numbered sources."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("top_k",
		mcp.Description("Number of context blocks to retrieve"),
	),
)

// searchCodebaseTool defines the search_codebase MCP tool.
var searchCodebaseTool = mcp.NewTool("search_codebase",
	mcp.WithDescription("Search the indexed code and documents. Returns the nearest chunks with their source paths."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return"),
	),
)

// indexStatusTool defines the index_status MCP tool.
var indexStatusTool = mcp.NewTool("index_status",
	mcp.WithDescription("Report how many chunks the index holds."),
)
