package storage

// Schema is the SQL schema for the knowledge graph database.
//
// Relationships deliberately carry no foreign keys to entities: endpoint
// existence is checked at creation time only, and deleting an entity leaves
// relationships dangling unless the caller asks for a cascade.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id           TEXT PRIMARY KEY,
    entity_type  TEXT NOT NULL,
    name         TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    last_updated TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(entity_type, name)
);

CREATE TABLE IF NOT EXISTS relationships (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL,
    target_id    TEXT NOT NULL,
    rel_type     TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    last_updated TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS properties (
    id              TEXT PRIMARY KEY,
    entity_id       TEXT NULL,
    relationship_id TEXT NULL,
    key             TEXT NOT NULL,
    value           TEXT NOT NULL,
    value_type      TEXT NOT NULL DEFAULT 'STRING',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    last_updated    TEXT NOT NULL DEFAULT (datetime('now')),
    CHECK ((entity_id IS NULL) != (relationship_id IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(rel_type);

-- Partial unique indexes give native upsert a conflict target per owner kind.
CREATE UNIQUE INDEX IF NOT EXISTS uq_properties_entity_key
    ON properties(entity_id, key) WHERE entity_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS uq_properties_relationship_key
    ON properties(relationship_id, key) WHERE relationship_id IS NOT NULL;
`
