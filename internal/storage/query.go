package storage

import (
	"database/sql"
	"strings"

	"github.com/arodr/kgraph-mcp/internal/kgerr"
	"github.com/arodr/kgraph-mcp/internal/models"
)

// readOnlyStatements is the allow-list for ad-hoc queries. The facade is a
// read surface; callers mutate through the typed operations. PRAGMA is
// deliberately absent: it can change connection state, including the
// query_only guard itself.
var readOnlyStatements = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"EXPLAIN": true,
}

// ExecuteQuery runs an arbitrary parameterized read-only query and returns
// each row as a column-to-value map. Timestamp columns are normalized to
// ISO-8601.
//
// The token check only produces a friendly error for obvious writes; the
// real guarantee comes from running on the query_only connection, where the
// engine refuses any mutation (a CTE-wrapped DELETE included).
func (s *Store) ExecuteQuery(query string, params []any) ([]map[string]any, error) {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return nil, kgerr.New(kgerr.Validation, "empty query")
	}
	if !readOnlyStatements[strings.ToUpper(fields[0])] {
		return nil, kgerr.New(kgerr.Validation, "only read statements are allowed (SELECT, WITH, EXPLAIN)")
	}

	var results []map[string]any
	err := s.withReadTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(query, params...)
		if err != nil {
			return storageErr(err, query, params...)
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return storageErr(err, query, params...)
		}

		for rows.Next() {
			values := make([]any, len(columns))
			ptrs := make([]any, len(columns))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return storageErr(err, "scan row")
			}

			row := make(map[string]any, len(columns))
			for i, col := range columns {
				row[col] = normalizeValue(col, values[i])
			}
			results = append(results, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListTables returns the names of all user tables in the database.
func (s *Store) ListTables() ([]string, error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, storageErr(err, query)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr(err, "scan table name")
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// DescribeTable returns column and index metadata for one table from the
// system catalog.
func (s *Store) DescribeTable(name string) (*models.TableInfo, error) {
	var exists string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, kgerr.New(kgerr.NotFound, "table not found: %s", name)
	}
	if err != nil {
		return nil, storageErr(err, "table existence check", name)
	}

	query := `SELECT name, type, "notnull", COALESCE(dflt_value, ''), pk FROM pragma_table_info(?)`
	rows, err := s.db.Query(query, name)
	if err != nil {
		return nil, storageErr(err, query, name)
	}
	defer rows.Close()

	info := &models.TableInfo{Name: name}
	for rows.Next() {
		var c models.TableColumn
		var notNull, pk int
		if err := rows.Scan(&c.Name, &c.DataType, &notNull, &c.Default, &pk); err != nil {
			return nil, storageErr(err, "scan column info")
		}
		c.NotNull = notNull != 0
		c.PrimaryKey = pk != 0
		info.Columns = append(info.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxQuery := `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`
	idxRows, err := s.db.Query(idxQuery, name)
	if err != nil {
		return nil, storageErr(err, idxQuery, name)
	}
	defer idxRows.Close()
	for idxRows.Next() {
		var idx string
		if err := idxRows.Scan(&idx); err != nil {
			return nil, storageErr(err, "scan index name")
		}
		info.Indexes = append(info.Indexes, idx)
	}
	return info, idxRows.Err()
}

// normalizeValue makes raw driver values JSON-friendly: byte slices become
// strings, and values from timestamp columns are rewritten as ISO-8601.
// Other text passes through untouched, so stored values that merely look
// like datetimes come back exactly as written.
func normalizeValue(col string, v any) any {
	switch val := v.(type) {
	case []byte:
		v = string(val)
	case string:
		v = val
	default:
		return v
	}
	if isTimestampColumn(col) {
		return models.ISOTime(v.(string))
	}
	return v
}

func isTimestampColumn(col string) bool {
	col = strings.ToLower(col)
	return col == "created_at" || col == "last_updated" || strings.HasSuffix(col, "_at")
}
