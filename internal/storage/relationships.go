package storage

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
	"github.com/arodr/kgraph-mcp/internal/models"
)

const relationshipColumns = `id, source_id, target_id, rel_type, created_at, last_updated`

// AddRelationship creates a directed, typed edge between two existing
// entities. Both endpoints are verified in one combined existence check
// before the insert.
func (s *Store) AddRelationship(sourceID, targetID, relType string, properties map[string]any) (*models.Relationship, error) {
	if sourceID == "" || targetID == "" || relType == "" {
		return nil, kgerr.New(kgerr.Validation, "source_id, target_id and type are required")
	}

	id := uuid.New().String()
	err := s.withTx(func(tx *sql.Tx) error {
		query := `SELECT COUNT(DISTINCT id) FROM entities WHERE id IN (?, ?)`
		var count int
		if err := tx.QueryRow(query, sourceID, targetID).Scan(&count); err != nil {
			return storageErr(err, query, sourceID, targetID)
		}
		want := 2
		if sourceID == targetID {
			want = 1
		}
		if count != want {
			return kgerr.New(kgerr.Validation, "both source and target entities must exist")
		}

		query = `INSERT INTO relationships (id, source_id, target_id, rel_type) VALUES (?, ?, ?, ?)`
		if _, err := tx.Exec(query, id, sourceID, targetID, relType); err != nil {
			return storageErr(err, query, id, sourceID, targetID, relType)
		}
		return insertProperties(tx, "relationship_id", id, properties)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRelationship(id)
}

// GetRelationship returns one relationship with its decoded property map.
func (s *Store) GetRelationship(id string) (*models.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = ?`
	r, err := scanRelationship(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, kgerr.New(kgerr.NotFound, "relationship not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(err, query, id)
	}

	props, err := loadProperties(s.db, "relationship_id", id)
	if err != nil {
		return nil, err
	}
	r.Properties = props
	return r, nil
}

// UpdateRelationship changes only the relationship's type, touching its
// last_updated timestamp, and returns the updated row.
func (s *Store) UpdateRelationship(id, relType string) (*models.Relationship, error) {
	if relType == "" {
		return nil, kgerr.New(kgerr.Validation, "type is required")
	}

	err := s.withTx(func(tx *sql.Tx) error {
		query := `UPDATE relationships SET rel_type = ?, last_updated = datetime('now') WHERE id = ?`
		result, err := tx.Exec(query, relType, id)
		if err != nil {
			return storageErr(err, query, relType, id)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return kgerr.New(kgerr.NotFound, "relationship not found: %s", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRelationship(id)
}

// GetRelationships returns relationships matching a conjunctive filter over
// the provided fields. All filters optional; an empty filter returns every
// relationship.
func (s *Store) GetRelationships(sourceID, targetID, relType string) ([]models.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE 1=1`
	var args []any
	if sourceID != "" {
		query += ` AND source_id = ?`
		args = append(args, sourceID)
	}
	if targetID != "" {
		query += ` AND target_id = ?`
		args = append(args, targetID)
	}
	if relType != "" {
		query += ` AND rel_type = ?`
		args = append(args, relType)
	}
	query += ` ORDER BY created_at`
	return s.queryRelationships(query, args...)
}

// GetEntityRelationships returns relationships touching an entity, filtered
// by direction: "outgoing" (entity is source), "incoming" (entity is
// target), or "both".
func (s *Store) GetEntityRelationships(entityID, direction, relType string) ([]models.Relationship, error) {
	if entityID == "" {
		return nil, kgerr.New(kgerr.Validation, "entity_id is required")
	}

	var where string
	var args []any
	switch direction {
	case "outgoing":
		where = `source_id = ?`
		args = append(args, entityID)
	case "incoming":
		where = `target_id = ?`
		args = append(args, entityID)
	case "", "both":
		where = `(source_id = ? OR target_id = ?)`
		args = append(args, entityID, entityID)
	default:
		return nil, kgerr.New(kgerr.Validation, "direction must be outgoing, incoming or both")
	}
	if relType != "" {
		where += ` AND rel_type = ?`
		args = append(args, relType)
	}

	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE ` + where + ` ORDER BY created_at`
	return s.queryRelationships(query, args...)
}

// DeleteRelationship removes the relationship's properties and then the
// relationship row. Unknown ids are a silent no-op, matching entity deletes.
func (s *Store) DeleteRelationship(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM properties WHERE relationship_id = ?`, id); err != nil {
			return storageErr(err, "delete relationship properties", id)
		}
		if _, err := tx.Exec(`DELETE FROM relationships WHERE id = ?`, id); err != nil {
			return storageErr(err, "delete relationship", id)
		}
		return nil
	})
}

// ReplaceRelationshipProperties swaps the relationship's full property set,
// mirroring UpdateEntity's delete-all-then-insert semantics.
func (s *Store) ReplaceRelationshipProperties(id string, properties map[string]any) (*models.Relationship, error) {
	err := s.withTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`UPDATE relationships SET last_updated = datetime('now') WHERE id = ?`, id)
		if err != nil {
			return storageErr(err, "update relationship timestamp", id)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return kgerr.New(kgerr.NotFound, "relationship not found: %s", id)
		}

		if _, err := tx.Exec(`DELETE FROM properties WHERE relationship_id = ?`, id); err != nil {
			return storageErr(err, "delete relationship properties", id)
		}
		return insertProperties(tx, "relationship_id", id, properties)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRelationship(id)
}

func (s *Store) queryRelationships(query string, args ...any) ([]models.Relationship, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(err, query, args...)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var r models.Relationship
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.RelType, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, storageErr(err, "scan relationship")
		}
		r.CreatedAt = models.ISOTime(r.CreatedAt)
		r.UpdatedAt = models.ISOTime(r.UpdatedAt)
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, query, args...)
	}

	for i := range rels {
		props, err := loadProperties(s.db, "relationship_id", rels[i].ID)
		if err != nil {
			return nil, err
		}
		rels[i].Properties = props
	}
	return rels, nil
}

func scanRelationship(row *sql.Row) (*models.Relationship, error) {
	var r models.Relationship
	if err := row.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.RelType, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = models.ISOTime(r.CreatedAt)
	r.UpdatedAt = models.ISOTime(r.UpdatedAt)
	return &r, nil
}
