package repositories

import (
	"context"
	"fmt"
	"pbm-portal/internal/constants"
	"pbm-portal/pkg/dbmanager"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ClaimsFilter selects a page of the historical claims table. SortField must
// already be allowlisted and SortOrder must be ASC or DESC.
type ClaimsFilter struct {
	Search    string
	Cedula    string
	SortField string
	SortOrder string
	Limit     int
	Offset    int
}

// ClaimsRepository reads the historical claims table on the analytical store.
type ClaimsRepository interface {
	List(ctx context.Context, filter ClaimsFilter) ([]map[string]interface{}, int64, error)
	Diagnose(ctx context.Context) (*ClaimsDiagnosis, error)
}

type ClaimsDiagnosis struct {
	DBTime   interface{}
	RowCount int64
}

type claimsRepository struct {
	executor dbmanager.QueryExecutor
	table    string
}

func NewClaimsRepository(executor dbmanager.QueryExecutor) ClaimsRepository {
	return &claimsRepository{executor: executor, table: constants.HistoricalTable}
}

func (r *claimsRepository) List(ctx context.Context, filter ClaimsFilter) ([]map[string]interface{}, int64, error) {
	where, args := buildClaimsWhere(filter)

	listQuery := fmt.Sprintf("SELECT * FROM %s %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		r.table, where, filter.SortField, filter.SortOrder, len(args)+1, len(args)+2)
	countQuery := fmt.Sprintf("SELECT count(*) AS total FROM %s %s", r.table, where)

	var rows []map[string]interface{}
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)
		res, err := r.executor.Query(gctx, listQuery, listArgs...)
		if err != nil {
			return err
		}
		rows = res.Rows
		return nil
	})
	g.Go(func() error {
		res, err := r.executor.Query(gctx, countQuery, args...)
		if err != nil {
			return err
		}
		if len(res.Rows) == 0 {
			return fmt.Errorf("count query returned no rows")
		}
		total, err = toInt64(res.Rows[0]["total"])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *claimsRepository) Diagnose(ctx context.Context) (*ClaimsDiagnosis, error) {
	now, err := r.executor.Query(ctx, "SELECT NOW() AS now")
	if err != nil {
		return nil, err
	}
	count, err := r.executor.Query(ctx, fmt.Sprintf("SELECT count(*) AS total FROM %s", r.table))
	if err != nil {
		return nil, err
	}

	diagnosis := &ClaimsDiagnosis{}
	if len(now.Rows) > 0 {
		diagnosis.DBTime = now.Rows[0]["now"]
	}
	if len(count.Rows) > 0 {
		if diagnosis.RowCount, err = toInt64(count.Rows[0]["total"]); err != nil {
			return nil, err
		}
	}
	return diagnosis, nil
}

func buildClaimsWhere(filter ClaimsFilter) (string, []interface{}) {
	clauses := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		parts := make([]string, 0, len(constants.HistoricalSearchFields))
		for _, field := range constants.HistoricalSearchFields {
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", field, idx))
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if filter.Cedula != "" {
		args = append(args, "%"+filter.Cedula+"%")
		clauses = append(clauses, fmt.Sprintf("cedula ILIKE $%d", len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
