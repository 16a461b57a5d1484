package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
)

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// toolError builds an error result carrying the error's kind tag alongside
// the message so the calling agent can distinguish validation failures from
// missing rows or storage faults.
func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("%s: %s", kgerr.KindOf(err), err.Error()),
		}},
		IsError: true,
	}
}

func toolErrorf(format string, args ...any) *mcp.CallToolResult {
	return toolError(kgerr.New(kgerr.Validation, format, args...))
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(kgerr.Wrap(kgerr.Storage, err, "marshal result")), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
