package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"pbm-portal/pkg/dbmanager"
)

type recordingExecutor struct {
	mu      sync.Mutex
	queries []string
	args    [][]interface{}
	err     error
	rows    []map[string]interface{}
	total   interface{}
}

func (e *recordingExecutor) Query(ctx context.Context, query string, args ...interface{}) (*dbmanager.QueryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, query)
	e.args = append(e.args, args)
	if e.err != nil {
		return nil, e.err
	}
	if strings.Contains(query, "count(*)") {
		return &dbmanager.QueryResult{Rows: []map[string]interface{}{{"total": e.total}}, RowCount: 1}, nil
	}
	return &dbmanager.QueryResult{Rows: e.rows, RowCount: len(e.rows)}, nil
}

func (e *recordingExecutor) find(substr string) (string, []interface{}) {
	for i, q := range e.queries {
		if strings.Contains(q, substr) {
			return q, e.args[i]
		}
	}
	return "", nil
}

func TestClaimsRepository_List(t *testing.T) {
	exec := &recordingExecutor{
		rows:  []map[string]interface{}{{"codautorizacion": "A1"}},
		total: int64(41),
	}
	repo := NewClaimsRepository(exec)

	rows, total, err := repo.List(context.Background(), ClaimsFilter{
		Search:    "carol",
		Cedula:    "402",
		SortField: "nombrefarmacia",
		SortOrder: "ASC",
		Limit:     20,
		Offset:    40,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 41 || len(rows) != 1 {
		t.Fatalf("total = %d rows = %d", total, len(rows))
	}

	list, listArgs := exec.find("SELECT * FROM dhm")
	if !strings.Contains(list, "ORDER BY nombrefarmacia ASC LIMIT $3 OFFSET $4") {
		t.Errorf("list query = %q", list)
	}
	if !strings.Contains(list, "descripcion ILIKE $1") || !strings.Contains(list, "cedula ILIKE $2") {
		t.Errorf("list query filters = %q", list)
	}
	if len(listArgs) != 4 || listArgs[0] != "%carol%" || listArgs[1] != "%402%" || listArgs[2] != 20 || listArgs[3] != 40 {
		t.Errorf("list args = %v", listArgs)
	}

	count, countArgs := exec.find("count(*)")
	if strings.Contains(count, "LIMIT") {
		t.Errorf("count query must not paginate: %q", count)
	}
	if len(countArgs) != 2 {
		t.Errorf("count args = %v", countArgs)
	}
}

func TestClaimsRepository_ListWithoutFilters(t *testing.T) {
	exec := &recordingExecutor{total: "7"}
	repo := NewClaimsRepository(exec)

	_, total, err := repo.List(context.Background(), ClaimsFilter{SortField: "fechareceta", SortOrder: "DESC", Limit: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7", total)
	}
	list, _ := exec.find("SELECT * FROM dhm")
	if !strings.Contains(list, "WHERE 1=1 ORDER BY fechareceta DESC LIMIT $1 OFFSET $2") {
		t.Errorf("list query = %q", list)
	}
}

func TestClaimsRepository_ListError(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("connection refused")}
	repo := NewClaimsRepository(exec)

	if _, _, err := repo.List(context.Background(), ClaimsFilter{SortField: "fechareceta", SortOrder: "DESC", Limit: 20}); err == nil {
		t.Fatal("expected error")
	}
}

func TestClaimsRepository_Diagnose(t *testing.T) {
	exec := &recordingExecutor{total: int64(1234)}
	repo := NewClaimsRepository(exec)

	d, err := repo.Diagnose(context.Background())
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	if d.RowCount != 1234 {
		t.Fatalf("RowCount = %d, want 1234", d.RowCount)
	}
}
