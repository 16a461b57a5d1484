package storage

import (
	"path/filepath"
	"testing"

	"github.com/arodr/kgraph-mcp/internal/config"
	"github.com/arodr/kgraph-mcp/internal/kgerr"
)

// setupStore creates a fresh database in a temp directory.
func setupStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS:  5000,
		ConnectRetries: 1,
	}
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndGetEntity(t *testing.T) {
	s := setupStore(t)

	created, err := s.AddEntity("person", "Ada", map[string]any{
		"age":    float64(30),
		"active": true,
		"note":   "likes graphs",
	})
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	if created.ID == "" {
		t.Error("Entity ID should not be empty")
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Error("Timestamps should be populated")
	}

	got, err := s.GetEntityByID(created.ID)
	if err != nil {
		t.Fatalf("GetEntityByID: %v", err)
	}
	if got.EntityType != "person" || got.Name != "Ada" {
		t.Errorf("Got %s/%s, want person/Ada", got.EntityType, got.Name)
	}
	if got.Properties["age"] != float64(30) {
		t.Errorf("age = %v (%T), want 30 (float64)", got.Properties["age"], got.Properties["age"])
	}
	if got.Properties["active"] != true {
		t.Errorf("active = %v, want true", got.Properties["active"])
	}
	if got.Properties["note"] != "likes graphs" {
		t.Errorf("note = %v, want %q", got.Properties["note"], "likes graphs")
	}

	byName, err := s.GetEntityByName("Ada")
	if err != nil {
		t.Fatalf("GetEntityByName: %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("GetByName ID = %q, want %q", byName.ID, created.ID)
	}
}

func TestAddEntityValidation(t *testing.T) {
	s := setupStore(t)

	_, err := s.AddEntity("", "Ada", nil)
	if !kgerr.IsKind(err, kgerr.Validation) {
		t.Errorf("Expected validation error for missing type, got %v", err)
	}
	_, err = s.AddEntity("person", "", nil)
	if !kgerr.IsKind(err, kgerr.Validation) {
		t.Errorf("Expected validation error for missing name, got %v", err)
	}
}

func TestAddEntityConflict(t *testing.T) {
	s := setupStore(t)

	if _, err := s.AddEntity("person", "Ada", nil); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddEntity("person", "Ada", nil)
	if !kgerr.IsKind(err, kgerr.Conflict) {
		t.Errorf("Expected conflict on duplicate (type, name), got %v", err)
	}

	// Same name under a different type is fine
	if _, err := s.AddEntity("project", "Ada", nil); err != nil {
		t.Errorf("Same name with different type should succeed: %v", err)
	}
}

func TestGetEntityNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetEntityByID("no-such-id")
	if !kgerr.IsKind(err, kgerr.NotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	_, err = s.GetEntityByName("nobody")
	if !kgerr.IsKind(err, kgerr.NotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestUpdateEntityFullReplace(t *testing.T) {
	s := setupStore(t)

	created, err := s.AddEntity("person", "Ada", map[string]any{"age": float64(30), "city": "London"})
	if err != nil {
		t.Fatal(err)
	}

	// The new set omits "city": it must be gone afterwards, not merged.
	updated, err := s.UpdateEntity(created.ID, map[string]any{"age": float64(31)})
	if err != nil {
		t.Fatalf("UpdateEntity: %v", err)
	}
	if updated.Properties["age"] != float64(31) {
		t.Errorf("age = %v, want 31", updated.Properties["age"])
	}
	if _, ok := updated.Properties["city"]; ok {
		t.Error("Property absent from the replacement set should be removed")
	}
}

func TestUpdateEntityNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.UpdateEntity("no-such-id", map[string]any{"k": "v"})
	if !kgerr.IsKind(err, kgerr.NotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestDeleteEntityRemovesProperties(t *testing.T) {
	s := setupStore(t)

	created, err := s.AddEntity("person", "Ada", map[string]any{"age": float64(30)})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteEntity(created.ID, false); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}

	props, err := s.GetProperties(created.ID, "", "")
	if err != nil {
		t.Fatalf("GetProperties: %v", err)
	}
	if len(props) != 0 {
		t.Errorf("Expected 0 properties after delete, got %d", len(props))
	}

	// Deleting again is a silent no-op
	if err := s.DeleteEntity(created.ID, false); err != nil {
		t.Errorf("Deleting nonexistent entity should be a no-op, got %v", err)
	}
}

func TestDeleteEntityDanglingVsCascade(t *testing.T) {
	s := setupStore(t)

	a, _ := s.AddEntity("task", "A", nil)
	b, _ := s.AddEntity("task", "B", nil)
	c, _ := s.AddEntity("task", "C", nil)

	if _, err := s.AddRelationship(a.ID, b.ID, "blocks", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddRelationship(a.ID, c.ID, "blocks", nil); err != nil {
		t.Fatal(err)
	}

	// Without cascade the relationships dangle.
	if err := s.DeleteEntity(b.ID, false); err != nil {
		t.Fatal(err)
	}
	rels, err := s.GetRelationships(a.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 2 {
		t.Errorf("Expected 2 dangling relationships, got %d", len(rels))
	}

	// With cascade the relationships go too.
	if err := s.DeleteEntity(a.ID, true); err != nil {
		t.Fatal(err)
	}
	rels, err = s.GetRelationships(a.ID, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rels) != 0 {
		t.Errorf("Expected 0 relationships after cascade delete, got %d", len(rels))
	}
}

func TestSearchEntities(t *testing.T) {
	s := setupStore(t)

	s.AddEntity("person", "Ada", map[string]any{"age": float64(30), "city": "London"})
	s.AddEntity("person", "Grace", map[string]any{"age": float64(30), "city": "Arlington"})
	s.AddEntity("project", "Analytical Engine", map[string]any{"age": float64(30)})

	// Type and property filters are conjunctive.
	results, err := s.SearchEntities("person", map[string]any{"age": float64(30), "city": "London"})
	if err != nil {
		t.Fatalf("SearchEntities: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Ada" {
		t.Fatalf("Expected only Ada, got %d results", len(results))
	}

	// Type only
	results, err = s.SearchEntities("person", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 persons, got %d", len(results))
	}

	// Empty filter returns all entities
	results, err = s.SearchEntities("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 entities for empty filter, got %d", len(results))
	}

	// No match is an empty list, not an error
	results, err = s.SearchEntities("person", map[string]any{"city": "Paris"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result, got %d", len(results))
	}
}

func TestGetConnectedEntities(t *testing.T) {
	s := setupStore(t)

	a, _ := s.AddEntity("task", "A", nil)
	b, _ := s.AddEntity("task", "B", nil)
	c, _ := s.AddEntity("task", "C", nil)

	s.AddRelationship(a.ID, b.ID, "blocks", nil)
	s.AddRelationship(c.ID, a.ID, "depends_on", nil)

	connected, err := s.GetConnectedEntities(a.ID, "")
	if err != nil {
		t.Fatalf("GetConnectedEntities: %v", err)
	}
	if len(connected) != 2 {
		t.Fatalf("Expected 2 connected entities, got %d", len(connected))
	}

	byName := map[string]string{}
	for _, conn := range connected {
		byName[conn.Name] = conn.Direction
	}
	if byName["B"] != "outgoing" {
		t.Errorf("B direction = %q, want outgoing", byName["B"])
	}
	if byName["C"] != "incoming" {
		t.Errorf("C direction = %q, want incoming", byName["C"])
	}

	// Narrow by relationship type
	connected, err = s.GetConnectedEntities(a.ID, "blocks")
	if err != nil {
		t.Fatal(err)
	}
	if len(connected) != 1 || connected[0].Name != "B" {
		t.Fatalf("Expected only B via blocks, got %d results", len(connected))
	}
}
