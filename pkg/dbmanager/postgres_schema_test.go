package dbmanager

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type scriptedExecutor struct {
	results map[string]*QueryResult
	err     error
	args    [][]interface{}
}

func (e *scriptedExecutor) Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	e.args = append(e.args, args)
	if e.err != nil {
		return nil, e.err
	}
	for marker, res := range e.results {
		if strings.Contains(query, marker) {
			return res, nil
		}
	}
	return &QueryResult{}, nil
}

func TestTableInspector(t *testing.T) {
	exec := &scriptedExecutor{results: map[string]*QueryResult{
		"information_schema.columns": {Rows: []map[string]interface{}{
			{"column_name": "codautorizacion", "data_type": "character varying", "is_nullable": "NO"},
			{"column_name": "totalcobertura", "data_type": "text", "is_nullable": "YES"},
		}},
		"pg_index": {Rows: []map[string]interface{}{
			{"indexname": "idx_dhm_simon", "columns": "simon"},
			{"indexname": "dhm_pkey", "columns": []byte("codautorizacion,codigofarmacia")},
		}},
	}}
	inspector := NewTableInspector(exec)

	cols, err := inspector.Columns(context.Background(), "dhm")
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}
	want := []ColumnInfo{
		{Name: "codautorizacion", Type: "character varying"},
		{Name: "totalcobertura", Type: "text", IsNullable: true},
	}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("Columns() = %+v", cols)
	}

	idx, err := inspector.Indexes(context.Background(), "dhm")
	if err != nil {
		t.Fatalf("Indexes() error = %v", err)
	}
	if len(idx) != 2 || !reflect.DeepEqual(idx[1].Columns, []string{"codautorizacion", "codigofarmacia"}) {
		t.Errorf("Indexes() = %+v", idx)
	}
	if len(exec.args) != 2 || exec.args[0][0] != "dhm" {
		t.Errorf("table not bound as parameter: %v", exec.args)
	}

	if got := MissingColumns(cols, []string{"CodAutorizacion", "simon"}); !reflect.DeepEqual(got, []string{"simon"}) {
		t.Errorf("MissingColumns() = %v", got)
	}
}

func TestTableInspector_Error(t *testing.T) {
	inspector := NewTableInspector(&scriptedExecutor{err: errors.New("permission denied")})
	if _, err := inspector.Columns(context.Background(), "dhm"); err == nil || !strings.Contains(err.Error(), "dhm") {
		t.Errorf("Columns() error = %v", err)
	}
}
