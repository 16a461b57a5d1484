package models

// Entity represents a typed, named node in the knowledge graph.
type Entity struct {
	ID         string         `json:"id"`
	EntityType string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"last_updated"`
}

// Relationship represents a typed, directed edge between two entities.
type Relationship struct {
	ID         string         `json:"id"`
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	RelType    string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"last_updated"`
}

// Property is a key/value attribute owned by exactly one entity or
// relationship. EntityID and RelationshipID are mutually exclusive.
type Property struct {
	ID             string    `json:"id"`
	EntityID       string    `json:"entity_id,omitempty"`
	RelationshipID string    `json:"relationship_id,omitempty"`
	Key            string    `json:"key"`
	Value          string    `json:"value"`
	ValueType      ValueType `json:"value_type"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"last_updated"`
}

// ConnectedEntity is an entity one hop away from a starting entity,
// annotated with the relationship that connects them.
type ConnectedEntity struct {
	Entity
	RelationshipType string `json:"relationship_type"`
	Direction        string `json:"direction"` // "outgoing" or "incoming"
}

// TableColumn describes one column of a table, from the system catalog.
type TableColumn struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	NotNull    bool   `json:"not_null"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableInfo describes a table's schema: its columns and indexes.
type TableInfo struct {
	Name    string        `json:"table_name"`
	Columns []TableColumn `json:"columns"`
	Indexes []string      `json:"indexes,omitempty"`
}
