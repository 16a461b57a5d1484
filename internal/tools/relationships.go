package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodr/kgraph-mcp/internal/models"
	"github.com/arodr/kgraph-mcp/internal/storage"
)

// RelationshipTools holds the storage handle for relationship tool handlers.
type RelationshipTools struct {
	Store *storage.Store
}

// --- Input types ---

type AddRelationshipInput struct {
	SourceID   string         `json:"source_id" jsonschema:"Source entity id"`
	TargetID   string         `json:"target_id" jsonschema:"Target entity id"`
	Type       string         `json:"type" jsonschema:"Relationship type in active voice (e.g. blocks, depends_on)"`
	Properties map[string]any `json:"properties,omitempty" jsonschema:"Optional initial key/value properties"`
}

type UpdateRelationshipInput struct {
	ID   string `json:"id" jsonschema:"Relationship id"`
	Type string `json:"type" jsonschema:"New relationship type"`
}

type GetRelationshipsInput struct {
	SourceID string `json:"source_id,omitempty" jsonschema:"Filter by source entity id"`
	TargetID string `json:"target_id,omitempty" jsonschema:"Filter by target entity id"`
	Type     string `json:"type,omitempty" jsonschema:"Filter by relationship type"`
	// EntityID with Direction filters relationships touching one entity
	// regardless of which side it is on.
	EntityID  string `json:"entity_id,omitempty" jsonschema:"Filter relationships touching this entity (use with direction)"`
	Direction string `json:"direction,omitempty" jsonschema:"Direction relative to entity_id: outgoing, incoming or both"`
}

type DeleteRelationshipInput struct {
	ID string `json:"id" jsonschema:"Relationship id to delete"`
}

type UpdateRelationshipPropertiesInput struct {
	ID         string         `json:"id" jsonschema:"Relationship id"`
	Properties map[string]any `json:"properties" jsonschema:"Full replacement property set; keys not listed are removed"`
}

// --- Handlers ---

func (t *RelationshipTools) AddRelationship(_ context.Context, _ *mcp.CallToolRequest, input AddRelationshipInput) (*mcp.CallToolResult, any, error) {
	rel, err := t.Store.AddRelationship(input.SourceID, input.TargetID, input.Type, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(rel)
}

func (t *RelationshipTools) UpdateRelationship(_ context.Context, _ *mcp.CallToolRequest, input UpdateRelationshipInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolErrorf("relationship id is required"), nil, nil
	}
	rel, err := t.Store.UpdateRelationship(input.ID, input.Type)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(rel)
}

func (t *RelationshipTools) GetRelationships(_ context.Context, _ *mcp.CallToolRequest, input GetRelationshipsInput) (*mcp.CallToolResult, any, error) {
	var rels []models.Relationship
	var err error
	if input.EntityID != "" {
		rels, err = t.Store.GetEntityRelationships(input.EntityID, input.Direction, input.Type)
	} else {
		rels, err = t.Store.GetRelationships(input.SourceID, input.TargetID, input.Type)
	}
	if err != nil {
		return toolError(err), nil, nil
	}
	if rels == nil {
		rels = []models.Relationship{}
	}
	return toolJSON(rels)
}

func (t *RelationshipTools) DeleteRelationship(_ context.Context, _ *mcp.CallToolRequest, input DeleteRelationshipInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolErrorf("relationship id is required"), nil, nil
	}
	if err := t.Store.DeleteRelationship(input.ID); err != nil {
		return toolError(err), nil, nil
	}
	return toolText(fmt.Sprintf("Relationship %s deleted.", input.ID)), nil, nil
}

func (t *RelationshipTools) UpdateRelationshipProperties(_ context.Context, _ *mcp.CallToolRequest, input UpdateRelationshipPropertiesInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolErrorf("relationship id is required"), nil, nil
	}
	rel, err := t.Store.ReplaceRelationshipProperties(input.ID, input.Properties)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(rel)
}
