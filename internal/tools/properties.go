package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/models"
	"github.com/arodr/kgraph-mcp/internal/storage"
)

// PropertyTools holds the storage handle for the generic property handlers,
// addressable by the entity-or-relationship owner selector.
type PropertyTools struct {
	Store *storage.Store
}

// --- Input types ---

type GetPropertiesInput struct {
	EntityID       string `json:"entity_id,omitempty" jsonschema:"Owning entity id (exclusive with relationship_id)"`
	RelationshipID string `json:"relationship_id,omitempty" jsonschema:"Owning relationship id (exclusive with entity_id)"`
	Key            string `json:"key,omitempty" jsonschema:"Optional single key filter"`
}

type UpdatePropertiesInput struct {
	EntityID       string         `json:"entity_id,omitempty" jsonschema:"Owning entity id (exclusive with relationship_id)"`
	RelationshipID string         `json:"relationship_id,omitempty" jsonschema:"Owning relationship id (exclusive with entity_id)"`
	Properties     map[string]any `json:"properties" jsonschema:"Key/value pairs to upsert on the owner"`
}

type DeletePropertiesInput struct {
	EntityID       string   `json:"entity_id,omitempty" jsonschema:"Owning entity id (exclusive with relationship_id)"`
	RelationshipID string   `json:"relationship_id,omitempty" jsonschema:"Owning relationship id (exclusive with entity_id)"`
	Keys           []string `json:"keys,omitempty" jsonschema:"Only delete these keys; omit to delete all"`
}

// --- Handlers ---

func (t *PropertyTools) GetProperties(_ context.Context, _ *mcp.CallToolRequest, input GetPropertiesInput) (*mcp.CallToolResult, any, error) {
	props, err := t.Store.GetProperties(input.EntityID, input.RelationshipID, input.Key)
	if err != nil {
		return toolError(err), nil, nil
	}
	if props == nil {
		props = []models.Property{}
	}
	return toolJSON(props)
}

func (t *PropertyTools) UpdateProperties(_ context.Context, _ *mcp.CallToolRequest, input UpdatePropertiesInput) (*mcp.CallToolResult, any, error) {
	props, err := t.Store.UpdateProperties(input.EntityID, input.RelationshipID, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(props)
}

func (t *PropertyTools) DeleteProperties(_ context.Context, _ *mcp.CallToolRequest, input DeletePropertiesInput) (*mcp.CallToolResult, any, error) {
	deleted, err := t.Store.DeleteProperties(input.EntityID, input.RelationshipID, input.Keys)
	if err != nil {
		return toolError(err), nil, nil
	}
	if deleted == nil {
		deleted = []models.Property{}
	}
	return toolJSON(deleted)
}
