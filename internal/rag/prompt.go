package rag

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/coderag/internal/llm"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

const systemPrompt = "You are a codebase assistant. Use ONLY the provided context blocks to answer. " +
	"Cite sources inline using [n] where n is the context block index. " +
	"If the answer is not in the context, say you don't know."

const instructions = `Instructions:
- Be concise.
- Use bullet points when listing APIs or steps.
- Include citations like [1], [2], etc.
`

// FormatContext renders hits as numbered blocks, one per hit:
//
//	[n] filename p.N — path
//	---
//	text
func FormatContext(hits []vectordb.Hit) string {
	blocks := make([]string, len(hits))
	for i, h := range hits {
		blocks[i] = fmt.Sprintf("%s\n---\n%s\n", vectordb.FormatSource(i+1, h.Metadata), h.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildMessages assembles the system and user prompts for question.
func BuildMessages(question string, hits []vectordb.Hit) []llm.Message {
	user := fmt.Sprintf("QUESTION:\n%s\n\nCONTEXT BLOCKS:\n%s\n\n%s", question, FormatContext(hits), instructions)
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user},
	}
}

// FormatSources renders one citation label per line, numbered from 1.
func FormatSources(sources []vectordb.Metadata) string {
	var sb strings.Builder
	for i, m := range sources {
		sb.WriteString(vectordb.FormatSource(i+1, m))
		sb.WriteString("\n")
	}
	return sb.String()
}
