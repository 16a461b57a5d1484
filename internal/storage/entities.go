package storage

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
	"github.com/arodr/kgraph-mcp/internal/models"
)

const entityColumns = `id, entity_type, name, created_at, last_updated`

// AddEntity inserts an entity and its optional initial properties, recording
// each property's value type from the supplied value. Returns the created
// entity with timestamps.
func (s *Store) AddEntity(entityType, name string, properties map[string]any) (*models.Entity, error) {
	if entityType == "" || name == "" {
		return nil, kgerr.New(kgerr.Validation, "entity type and name are required")
	}

	id := uuid.New().String()
	err := s.withTx(func(tx *sql.Tx) error {
		query := `INSERT INTO entities (id, entity_type, name) VALUES (?, ?, ?)`
		if _, err := tx.Exec(query, id, entityType, name); err != nil {
			return storageErr(err, query, id, entityType, name)
		}
		return insertProperties(tx, "entity_id", id, properties)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntityByID(id)
}

// GetEntityByID returns an entity and its decoded property map.
func (s *Store) GetEntityByID(id string) (*models.Entity, error) {
	return s.getEntity(`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
}

// GetEntityByName returns an entity looked up by its unique name.
func (s *Store) GetEntityByName(name string) (*models.Entity, error) {
	return s.getEntity(`SELECT `+entityColumns+` FROM entities WHERE name = ?`, name)
}

func (s *Store) getEntity(query string, arg any) (*models.Entity, error) {
	e, err := scanEntity(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, kgerr.New(kgerr.NotFound, "entity not found: %v", arg)
	}
	if err != nil {
		return nil, storageErr(err, query, arg)
	}

	props, err := loadProperties(s.db, "entity_id", e.ID)
	if err != nil {
		return nil, err
	}
	e.Properties = props
	return e, nil
}

// UpdateEntity replaces the entity's entire property set (delete-all then
// insert, not a merge) and touches its last_updated timestamp.
func (s *Store) UpdateEntity(id string, properties map[string]any) (*models.Entity, error) {
	err := s.withTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`UPDATE entities SET last_updated = datetime('now') WHERE id = ?`, id)
		if err != nil {
			return storageErr(err, "update entity timestamp", id)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return kgerr.New(kgerr.NotFound, "entity not found: %s", id)
		}

		if _, err := tx.Exec(`DELETE FROM properties WHERE entity_id = ?`, id); err != nil {
			return storageErr(err, "delete entity properties", id)
		}
		return insertProperties(tx, "entity_id", id, properties)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntityByID(id)
}

// DeleteEntity removes the entity's properties and then the entity row.
// Deleting an id that does not exist is a silent no-op. With cascade set,
// relationships touching the entity are removed along with their properties;
// without it they are left dangling.
func (s *Store) DeleteEntity(id string, cascade bool) error {
	return s.withTx(func(tx *sql.Tx) error {
		if cascade {
			if err := deleteRelationshipsTouching(tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM properties WHERE entity_id = ?`, id); err != nil {
			return storageErr(err, "delete entity properties", id)
		}
		if _, err := tx.Exec(`DELETE FROM entities WHERE id = ?`, id); err != nil {
			return storageErr(err, "delete entity", id)
		}
		return nil
	})
}

func deleteRelationshipsTouching(tx *sql.Tx, entityID string) error {
	query := `DELETE FROM properties WHERE relationship_id IN
	    (SELECT id FROM relationships WHERE source_id = ? OR target_id = ?)`
	if _, err := tx.Exec(query, entityID, entityID); err != nil {
		return storageErr(err, query, entityID)
	}
	query = `DELETE FROM relationships WHERE source_id = ? OR target_id = ?`
	if _, err := tx.Exec(query, entityID, entityID); err != nil {
		return storageErr(err, query, entityID)
	}
	return nil
}

// SearchEntities returns entities matching a conjunctive filter: an optional
// type match plus, for each property pair, an EXISTS subquery requiring that
// exact key/value. An empty filter set returns all entities.
func (s *Store) SearchEntities(entityType string, properties map[string]any) ([]models.Entity, error) {
	var conditions []string
	var args []any

	if entityType != "" {
		conditions = append(conditions, `e.entity_type = ?`)
		args = append(args, entityType)
	}
	for key, value := range properties {
		conditions = append(conditions,
			`EXISTS (SELECT 1 FROM properties p WHERE p.entity_id = e.id AND p.key = ? AND p.value = ?)`)
		str, _ := models.EncodeValue(value)
		args = append(args, key, str)
	}

	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	query := `SELECT e.id, e.entity_type, e.name, e.created_at, e.last_updated
	    FROM entities e WHERE ` + where + ` ORDER BY e.name`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(err, query, args...)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.EntityType, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, storageErr(err, "scan entity")
		}
		e.CreatedAt = models.ISOTime(e.CreatedAt)
		e.UpdatedAt = models.ISOTime(e.UpdatedAt)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, query, args...)
	}

	for i := range entities {
		props, err := loadProperties(s.db, "entity_id", entities[i].ID)
		if err != nil {
			return nil, err
		}
		entities[i].Properties = props
	}
	return entities, nil
}

// GetConnectedEntities returns entities one relationship hop away from the
// given entity, annotated with the connecting relationship's type and the
// direction of travel. The optional relationship type narrows the hop.
func (s *Store) GetConnectedEntities(entityID, relationshipType string) ([]models.ConnectedEntity, error) {
	if entityID == "" {
		return nil, kgerr.New(kgerr.Validation, "entity_id is required")
	}

	query := `SELECT e.id, e.entity_type, e.name, e.created_at, e.last_updated,
	        r.rel_type,
	        CASE WHEN r.source_id = ? THEN 'outgoing' ELSE 'incoming' END AS direction
	    FROM relationships r
	    JOIN entities e ON e.id = CASE WHEN r.source_id = ? THEN r.target_id ELSE r.source_id END
	    WHERE (r.source_id = ? OR r.target_id = ?)`
	args := []any{entityID, entityID, entityID, entityID}
	if relationshipType != "" {
		query += ` AND r.rel_type = ?`
		args = append(args, relationshipType)
	}
	query += ` ORDER BY e.name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr(err, query, args...)
	}
	defer rows.Close()

	var connected []models.ConnectedEntity
	for rows.Next() {
		var c models.ConnectedEntity
		if err := rows.Scan(&c.ID, &c.EntityType, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.RelationshipType, &c.Direction); err != nil {
			return nil, storageErr(err, "scan connected entity")
		}
		c.CreatedAt = models.ISOTime(c.CreatedAt)
		c.UpdatedAt = models.ISOTime(c.UpdatedAt)
		connected = append(connected, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, query, args...)
	}

	for i := range connected {
		props, err := loadProperties(s.db, "entity_id", connected[i].ID)
		if err != nil {
			return nil, err
		}
		connected[i].Properties = props
	}
	return connected, nil
}

func scanEntity(row *sql.Row) (*models.Entity, error) {
	var e models.Entity
	if err := row.Scan(&e.ID, &e.EntityType, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.CreatedAt = models.ISOTime(e.CreatedAt)
	e.UpdatedAt = models.ISOTime(e.UpdatedAt)
	return &e, nil
}
