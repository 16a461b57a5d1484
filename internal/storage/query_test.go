package storage

import (
	"testing"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
)

func TestExecuteQuery(t *testing.T) {
	s := setupStore(t)

	s.AddEntity("person", "Ada", nil)
	s.AddEntity("person", "Grace", nil)

	rows, err := s.ExecuteQuery(`SELECT name FROM entities WHERE entity_type = ? ORDER BY name`, []any{"person"})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "Ada" {
		t.Errorf("First row name = %v, want Ada", rows[0]["name"])
	}
}

func TestExecuteQueryTimestampsAreISO(t *testing.T) {
	s := setupStore(t)

	s.AddEntity("person", "Ada", nil)

	rows, err := s.ExecuteQuery(`SELECT created_at FROM entities`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	created, ok := rows[0]["created_at"].(string)
	if !ok {
		t.Fatalf("created_at is %T, want string", rows[0]["created_at"])
	}
	// SQLite stores "YYYY-MM-DD HH:MM:SS"; the facade must emit RFC 3339.
	if len(created) < 11 || created[10] != 'T' {
		t.Errorf("created_at %q is not ISO-8601", created)
	}
}

func TestExecuteQueryRejectsWrites(t *testing.T) {
	s := setupStore(t)

	for _, stmt := range []string{
		`INSERT INTO entities (id, entity_type, name) VALUES ('x', 'person', 'Eve')`,
		`DELETE FROM entities`,
		`UPDATE entities SET name = 'x'`,
		`DROP TABLE entities`,
		`PRAGMA journal_mode = DELETE`,
		`PRAGMA query_only = OFF`,
		``,
	} {
		_, err := s.ExecuteQuery(stmt, nil)
		if !kgerr.IsKind(err, kgerr.Validation) {
			t.Errorf("Statement %q: expected validation error, got %v", stmt, err)
		}
	}
}

func TestExecuteQueryRejectsSmuggledWrites(t *testing.T) {
	s := setupStore(t)

	s.AddEntity("person", "Ada", nil)
	s.AddEntity("person", "Grace", nil)

	// These open with an allow-listed keyword but mutate; the query_only
	// connection must refuse them and the data must survive.
	for _, stmt := range []string{
		`WITH doomed AS (SELECT 1) DELETE FROM entities`,
		`WITH doomed AS (SELECT id FROM entities) UPDATE entities SET name = 'x'`,
	} {
		if _, err := s.ExecuteQuery(stmt, nil); err == nil {
			t.Errorf("Statement %q: expected error, got none", stmt)
		}
	}

	rows, err := s.ExecuteQuery(`SELECT COUNT(*) AS n FROM entities`, nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if n, ok := rows[0]["n"].(int64); !ok || n != 2 {
		t.Errorf("Entity count after rejected writes = %v, want 2", rows[0]["n"])
	}
}

func TestExecuteQueryKeepsStoredTextVerbatim(t *testing.T) {
	s := setupStore(t)

	e, err := s.AddEntity("event", "launch", map[string]any{"scheduled": "2024-05-01 10:30:00"})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := s.ExecuteQuery(
		`SELECT value, last_updated FROM properties WHERE entity_id = ? AND key = ?`,
		[]any{e.ID, "scheduled"},
	)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	// A stored value that merely looks like a datetime must come back as
	// written; only timestamp columns get rewritten to RFC 3339.
	if got := rows[0]["value"]; got != "2024-05-01 10:30:00" {
		t.Errorf("value = %v, want the stored text verbatim", got)
	}
	updated, ok := rows[0]["last_updated"].(string)
	if !ok || len(updated) < 11 || updated[10] != 'T' {
		t.Errorf("last_updated %v is not ISO-8601", rows[0]["last_updated"])
	}
}

func TestListTables(t *testing.T) {
	s := setupStore(t)

	tables, err := s.ListTables()
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}

	want := map[string]bool{"entities": false, "relationships": false, "properties": false}
	for _, name := range tables {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected table %q in listing", name)
		}
	}
}

func TestDescribeTable(t *testing.T) {
	s := setupStore(t)

	info, err := s.DescribeTable("properties")
	if err != nil {
		t.Fatalf("DescribeTable: %v", err)
	}
	if info.Name != "properties" {
		t.Errorf("Name = %q, want properties", info.Name)
	}

	cols := map[string]bool{}
	for _, c := range info.Columns {
		cols[c.Name] = true
	}
	for _, want := range []string{"id", "entity_id", "relationship_id", "key", "value", "value_type"} {
		if !cols[want] {
			t.Errorf("Expected column %q", want)
		}
	}
	if len(info.Indexes) == 0 {
		t.Error("Expected at least one index on properties")
	}

	_, err = s.DescribeTable("no_such_table")
	if !kgerr.IsKind(err, kgerr.NotFound) {
		t.Errorf("Expected not found for unknown table, got %v", err)
	}
}
