package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/storage"
)

// QueryTools exposes ad-hoc read-only SQL and schema introspection.
type QueryTools struct {
	Store *storage.Store
}

// --- Input types ---

type ExecuteQueryInput struct {
	SQL    string `json:"sql" jsonschema:"Read-only SQL statement (SELECT, WITH or EXPLAIN)"`
	Params []any  `json:"params,omitempty" jsonschema:"Positional parameters bound to ? placeholders"`
}

type DescribeTableInput struct {
	TableName string `json:"table_name" jsonschema:"Name of the table to describe"`
}

// --- Handlers ---

func (t *QueryTools) ExecuteQuery(_ context.Context, _ *mcp.CallToolRequest, input ExecuteQueryInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Store.ExecuteQuery(input.SQL, input.Params)
	if err != nil {
		return toolError(err), nil, nil
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return toolJSON(rows)
}

func (t *QueryTools) ListTables(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	tables, err := t.Store.ListTables()
	if err != nil {
		return toolError(err), nil, nil
	}
	if tables == nil {
		tables = []string{}
	}
	return toolJSON(tables)
}

func (t *QueryTools) DescribeTable(_ context.Context, _ *mcp.CallToolRequest, input DescribeTableInput) (*mcp.CallToolResult, any, error) {
	if input.TableName == "" {
		return toolErrorf("table_name is required"), nil, nil
	}
	info, err := t.Store.DescribeTable(input.TableName)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(info)
}
