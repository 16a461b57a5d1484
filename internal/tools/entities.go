package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/models"
	"github.com/arodr/kgraph-mcp/internal/storage"
)

// EntityTools holds the storage handle for entity tool handlers.
type EntityTools struct {
	Store *storage.Store
}

// --- Input types ---

type AddEntityInput struct {
	Type       string         `json:"type" jsonschema:"Entity type tag (e.g. person, task, concept)"`
	Name       string         `json:"name" jsonschema:"Entity name, unique per type"`
	Properties map[string]any `json:"properties,omitempty" jsonschema:"Optional initial key/value properties"`
}

type GetEntityInput struct {
	ID   string `json:"id,omitempty" jsonschema:"Entity id to look up"`
	Name string `json:"name,omitempty" jsonschema:"Entity name to look up (used when id is absent)"`
}

type UpdateEntityInput struct {
	ID         string         `json:"id" jsonschema:"Entity id"`
	Properties map[string]any `json:"properties" jsonschema:"Full replacement property set; keys not listed are removed"`
}

type DeleteEntityInput struct {
	ID      string `json:"id" jsonschema:"Entity id to delete"`
	Cascade bool   `json:"cascade,omitempty" jsonschema:"Also delete relationships touching this entity; default leaves them dangling"`
}

type SearchEntitiesInput struct {
	Type       string         `json:"type,omitempty" jsonschema:"Filter by entity type"`
	Properties map[string]any `json:"properties,omitempty" jsonschema:"Require each key/value pair to be present as a property"`
}

type GetConnectedEntitiesInput struct {
	EntityID         string `json:"entity_id" jsonschema:"Starting entity id"`
	RelationshipType string `json:"relationship_type,omitempty" jsonschema:"Only follow relationships of this type"`
}

// --- Handlers ---

func (t *EntityTools) AddEntity(_ context.Context, _ *mcp.CallToolRequest, input AddEntityInput) (*mcp.CallToolResult, any, error) {
	entity, err := t.Store.AddEntity(input.Type, input.Name, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(entity)
}

func (t *EntityTools) GetEntity(_ context.Context, _ *mcp.CallToolRequest, input GetEntityInput) (*mcp.CallToolResult, any, error) {
	var entity *models.Entity
	var err error
	switch {
	case input.ID != "":
		entity, err = t.Store.GetEntityByID(input.ID)
	case input.Name != "":
		entity, err = t.Store.GetEntityByName(input.Name)
	default:
		return toolErrorf("must provide either id or name"), nil, nil
	}
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(entity)
}

func (t *EntityTools) UpdateEntity(_ context.Context, _ *mcp.CallToolRequest, input UpdateEntityInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolErrorf("entity id is required"), nil, nil
	}
	entity, err := t.Store.UpdateEntity(input.ID, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(entity)
}

func (t *EntityTools) DeleteEntity(_ context.Context, _ *mcp.CallToolRequest, input DeleteEntityInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolErrorf("entity id is required"), nil, nil
	}
	if err := t.Store.DeleteEntity(input.ID, input.Cascade); err != nil {
		return toolError(err), nil, nil
	}
	return toolText(fmt.Sprintf("Entity %s deleted.", input.ID)), nil, nil
}

func (t *EntityTools) SearchEntities(_ context.Context, _ *mcp.CallToolRequest, input SearchEntitiesInput) (*mcp.CallToolResult, any, error) {
	entities, err := t.Store.SearchEntities(input.Type, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	return toolJSON(entities)
}

func (t *EntityTools) GetConnectedEntities(_ context.Context, _ *mcp.CallToolRequest, input GetConnectedEntitiesInput) (*mcp.CallToolResult, any, error) {
	connected, err := t.Store.GetConnectedEntities(input.EntityID, input.RelationshipType)
	if err != nil {
		return toolError(err), nil, nil
	}
	if connected == nil {
		connected = []models.ConnectedEntity{}
	}
	return toolJSON(connected)
}
