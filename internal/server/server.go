package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/storage"
	"github.com/arodr/kgraph-mcp/internal/tools"
)

// New creates a fully configured MCP server with all knowledge graph tools
// registered against the given store.
func New(store *storage.Store) *mcp.Server {
	et := &tools.EntityTools{Store: store}
	rt := &tools.RelationshipTools{Store: store}
	pt := &tools.PropertyTools{Store: store}
	qt := &tools.QueryTools{Store: store}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "kgraph-mcp",
		Version: "0.1.0",
	}, nil)

	// Entity tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_entity",
		Description: "Add a new entity to the graph with optional key/value properties",
	}, et.AddEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_entity",
		Description: "Get an entity by id or name, with its aggregated properties",
	}, et.GetEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_entity",
		Description: "Replace an entity's entire property set (keys not listed are removed)",
	}, et.UpdateEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_entity",
		Description: "Delete an entity and its properties; cascade=true also removes relationships touching it",
	}, et.DeleteEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_entities",
		Description: "Search entities by type and/or exact property key/value pairs (all filters ANDed)",
	}, et.SearchEntities)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_connected_entities",
		Description: "Get entities one relationship hop away from an entity, with direction annotations",
	}, et.GetConnectedEntities)

	// Relationship tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_relationship",
		Description: "Add a directed, typed relationship between two existing entities",
	}, rt.AddRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_relationship",
		Description: "Update a relationship's type",
	}, rt.UpdateRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_relationships",
		Description: "List relationships filtered by source, target, type, or by entity_id with a direction",
	}, rt.GetRelationships)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relationship",
		Description: "Delete a relationship and its properties",
	}, rt.DeleteRelationship)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_relationship_properties",
		Description: "Replace a relationship's entire property set (keys not listed are removed)",
	}, rt.UpdateRelationshipProperties)

	// Property tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_properties",
		Description: "Get properties for an entity or a relationship, optionally filtered by key",
	}, pt.GetProperties)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_properties",
		Description: "Upsert key/value properties on an entity or a relationship",
	}, pt.UpdateProperties)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_properties",
		Description: "Delete properties from an entity or a relationship, returning the removed rows",
	}, pt.DeleteProperties)

	// Query facade
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "execute_query",
		Description: "Execute a parameterized read-only SQL query against the knowledge graph database",
	}, qt.ExecuteQuery)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_tables",
		Description: "List all tables in the knowledge graph database",
	}, qt.ListTables)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "describe_table",
		Description: "Get column and index metadata for a table",
	}, qt.DescribeTable)

	return srv
}
