package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
	"github.com/arodr/kgraph-mcp/internal/models"
)

const propertyColumns = `id, entity_id, relationship_id, key, value, value_type, created_at, last_updated`

// ownerFilter resolves the entity-or-relationship owner selector. Exactly
// one of the two ids must be set.
func ownerFilter(entityID, relationshipID string) (column, id string, err error) {
	switch {
	case entityID != "" && relationshipID != "":
		return "", "", kgerr.New(kgerr.Validation, "provide either entity_id or relationship_id, not both")
	case entityID != "":
		return "entity_id", entityID, nil
	case relationshipID != "":
		return "relationship_id", relationshipID, nil
	default:
		return "", "", kgerr.New(kgerr.Validation, "must provide either entity_id or relationship_id")
	}
}

// GetProperties returns property rows for one owner, optionally narrowed to
// a single key.
func (s *Store) GetProperties(entityID, relationshipID, key string) ([]models.Property, error) {
	column, id, err := ownerFilter(entityID, relationshipID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ` + column + ` = ?`
	args := []any{id}
	if key != "" {
		query += ` AND key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY key`

	return s.queryProperties(s.db, query, args...)
}

// UpdateProperties upserts each key for the owner: existing keys get their
// value and last_updated replaced in place (value_type untouched), new keys
// are inserted with value type STRING. Uses SQLite's native conditional
// upsert against the per-owner partial unique index, so concurrent writers
// to the same key resolve last-writer-wins instead of racing a
// read-then-write.
func (s *Store) UpdateProperties(entityID, relationshipID string, properties map[string]any) ([]models.Property, error) {
	column, id, err := ownerFilter(entityID, relationshipID)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, kgerr.New(kgerr.Validation, "no properties provided for update")
	}

	err = s.withTx(func(tx *sql.Tx) error {
		if err := ownerExists(tx, column, id); err != nil {
			return err
		}
		upsert := fmt.Sprintf(
			`INSERT INTO properties (id, %s, key, value, value_type) VALUES (?, ?, ?, ?, 'STRING')
			 ON CONFLICT(%s, key) WHERE %s IS NOT NULL
			 DO UPDATE SET value = excluded.value, last_updated = datetime('now')`,
			column, column, column,
		)
		for key, value := range properties {
			str, _ := models.EncodeValue(value)
			if _, err := tx.Exec(upsert, uuid.New().String(), id, key, str); err != nil {
				return storageErr(err, upsert, id, key, str)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	return s.propertiesByKeys(column, id, keys)
}

// DeleteProperties removes the owner's properties, optionally restricted to
// a key list, and returns the rows that matched before deletion.
func (s *Store) DeleteProperties(entityID, relationshipID string, keys []string) ([]models.Property, error) {
	column, id, err := ownerFilter(entityID, relationshipID)
	if err != nil {
		return nil, err
	}

	where := column + ` = ?`
	args := []any{id}
	if len(keys) > 0 {
		where += ` AND key IN (` + placeholders(len(keys)) + `)`
		for _, k := range keys {
			args = append(args, k)
		}
	}

	var deleted []models.Property
	err = s.withTx(func(tx *sql.Tx) error {
		var err error
		deleted, err = s.queryProperties(tx, `SELECT `+propertyColumns+` FROM properties WHERE `+where, args...)
		if err != nil {
			return err
		}
		query := `DELETE FROM properties WHERE ` + where
		if _, err := tx.Exec(query, args...); err != nil {
			return storageErr(err, query, args...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *Store) propertiesByKeys(column, id string, keys []string) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ` + column + ` = ?` +
		` AND key IN (` + placeholders(len(keys)) + `) ORDER BY key`
	args := make([]any, 0, len(keys)+1)
	args = append(args, id)
	for _, k := range keys {
		args = append(args, k)
	}
	return s.queryProperties(s.db, query, args...)
}

func (s *Store) queryProperties(q querier, query string, args ...any) ([]models.Property, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, storageErr(err, query, args...)
	}
	defer rows.Close()

	var props []models.Property
	for rows.Next() {
		var p models.Property
		var entityID, relationshipID sql.NullString
		if err := rows.Scan(&p.ID, &entityID, &relationshipID, &p.Key, &p.Value, &p.ValueType, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storageErr(err, "scan property")
		}
		p.EntityID = entityID.String
		p.RelationshipID = relationshipID.String
		p.CreatedAt = models.ISOTime(p.CreatedAt)
		p.UpdatedAt = models.ISOTime(p.UpdatedAt)
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, query, args...)
	}
	return props, nil
}

// ownerExists checks the owning row is present before property writes.
func ownerExists(q querier, column, id string) error {
	table, label := "entities", "entity"
	if column == "relationship_id" {
		table, label = "relationships", "relationship"
	}
	var found string
	err := q.QueryRow(`SELECT id FROM `+table+` WHERE id = ?`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return kgerr.New(kgerr.NotFound, "%s not found: %s", label, id)
	}
	if err != nil {
		return storageErr(err, "owner existence check", id)
	}
	return nil
}

// insertProperties writes one property row per key, recording each value's
// detected type tag.
func insertProperties(q querier, column, ownerID string, properties map[string]any) error {
	query := fmt.Sprintf(
		`INSERT INTO properties (id, %s, key, value, value_type) VALUES (?, ?, ?, ?, ?)`, column)
	for key, value := range properties {
		str, vt := models.EncodeValue(value)
		if _, err := q.Exec(query, uuid.New().String(), ownerID, key, str, string(vt)); err != nil {
			return storageErr(err, query, ownerID, key, str, vt)
		}
	}
	return nil
}

// loadProperties aggregates an owner's properties into a decoded key->value map.
func loadProperties(q querier, column, ownerID string) (map[string]any, error) {
	query := `SELECT key, value, value_type FROM properties WHERE ` + column + ` = ?`
	rows, err := q.Query(query, ownerID)
	if err != nil {
		return nil, storageErr(err, query, ownerID)
	}
	defer rows.Close()

	var props map[string]any
	for rows.Next() {
		var key, value string
		var vt models.ValueType
		if err := rows.Scan(&key, &value, &vt); err != nil {
			return nil, storageErr(err, "scan property value")
		}
		if props == nil {
			props = make(map[string]any)
		}
		props[key] = models.DecodeValue(value, vt)
	}
	return props, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
