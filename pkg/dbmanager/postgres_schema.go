package dbmanager

import (
	"context"
	"fmt"
	"strings"
)

// ColumnInfo describes one column of an analytical table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	IsNullable bool   `json:"isNullable"`
}

// IndexInfo describes one index of an analytical table.
type IndexInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// TableInspector reads column and index metadata from information_schema and
// pg_index. It is used to check that the claims tables still match the
// column list the query prompts describe.
type TableInspector struct {
	executor QueryExecutor
}

func NewTableInspector(executor QueryExecutor) *TableInspector {
	return &TableInspector{executor: executor}
}

// Columns lists the columns of table in ordinal order.
func (i *TableInspector) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	query := `
        SELECT column_name, data_type, is_nullable
        FROM information_schema.columns
        WHERE table_schema = 'public'
        AND table_name = $1
        ORDER BY ordinal_position;
    `
	result, err := i.executor.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns for table %s: %w", table, err)
	}

	columns := make([]ColumnInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		columns = append(columns, ColumnInfo{
			Name:       asString(row["column_name"]),
			Type:       asString(row["data_type"]),
			IsNullable: asString(row["is_nullable"]) == "YES",
		})
	}
	return columns, nil
}

// Indexes lists the indexes defined on table.
func (i *TableInspector) Indexes(ctx context.Context, table string) ([]IndexInfo, error) {
	query := `
        SELECT
            i.relname as indexname,
            array_to_string(array_agg(a.attname), ',') as columns
        FROM pg_index idx
        JOIN pg_class i ON i.oid = idx.indexrelid
        JOIN pg_class t ON t.oid = idx.indrelid
        JOIN pg_attribute a ON a.attrelid = t.oid
        WHERE t.relname = $1
        AND a.attnum = ANY(idx.indkey)
        GROUP BY i.relname
        ORDER BY i.relname;
    `
	result, err := i.executor.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch indexes for table %s: %w", table, err)
	}

	indexes := make([]IndexInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		var cols []string
		if raw := asString(row["columns"]); raw != "" {
			cols = strings.Split(raw, ",")
		}
		indexes = append(indexes, IndexInfo{Name: asString(row["indexname"]), Columns: cols})
	}
	return indexes, nil
}

// MissingColumns returns the names in expected that table does not have.
func MissingColumns(columns []ColumnInfo, expected []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.ToLower(c.Name)] = true
	}
	var missing []string
	for _, name := range expected {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
