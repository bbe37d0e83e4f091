// Package sqlguard checks model-generated SQL before it reaches the historical
// claims database.
//
// The checks are textual. They run on the uppercased statement and block on
// suspicious tokens even inside string literals or comments. Only the
// aggregate-over-text-column mistake is patched; comparisons such as
// "precio > 100" are left untouched.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Reason identifies which rule rejected a statement.
type Reason string

const (
	ReasonNotSelect     Reason = "not-a-select"
	ReasonUnsafeKeyword Reason = "unsafe-keyword"
	ReasonWrongTable    Reason = "wrong-table"
)

// AllowedTables are the only tables the query gateway may target.
var AllowedTables = []string{"dhm", "dhm2"}

// NumericTextColumns hold numbers stored as text. Aggregates over them need an
// explicit ::NUMERIC cast.
var NumericTextColumns = []string{"totalcobertura", "precio", "copago", "cantidad", "facturado"}

var forbiddenPattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|GRANT|REVOKE|CREATE|REPLACE|v\$|pg_shadow|pg_user)\b`)

// Rejection is returned when a statement breaks one of the rules. Message is
// safe to show to end users.
type Rejection struct {
	Reason  Reason
	Message string
	Detail  string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("sql rejected (%s): %s", r.Reason, r.Message)
	}
	return fmt.Sprintf("sql rejected (%s): %s: %s", r.Reason, r.Message, r.Detail)
}

// Result is a statement that passed every rule.
type Result struct {
	// Normalized is the trimmed, uppercased statement without its trailing ";".
	Normalized string
	// Executable keeps the original casing, has the trailing ";" removed and
	// the numeric casts applied.
	Executable string
	// Rewritten reports whether a cast was inserted.
	Rewritten bool
}

// Guard validates statements for one table.
type Guard struct {
	table        string
	tableScope   *regexp.Regexp
	foreignScope []*regexp.Regexp
	casts        []castRule
}

type castRule struct {
	column  string
	pattern *regexp.Regexp
}

// IsAllowedTable reports whether table is on the allowlist.
func IsAllowedTable(table string) bool {
	for _, t := range AllowedTables {
		if t == table {
			return true
		}
	}
	return false
}

// New returns a Guard for table, which must be allowlisted.
func New(table string) (*Guard, error) {
	if !IsAllowedTable(table) {
		return nil, fmt.Errorf("table %q is not allowed", table)
	}

	g := &Guard{
		table:      table,
		tableScope: scopePattern(table),
		casts:      castRules(NumericTextColumns),
	}
	for _, other := range AllowedTables {
		if other != table {
			g.foreignScope = append(g.foreignScope, scopePattern(other))
		}
	}
	return g, nil
}

// Table returns the table this guard enforces.
func (g *Guard) Table() string {
	return g.table
}

// Check applies the rules in order and stops at the first violation. No
// rewriting happens unless every rule passed.
func (g *Guard) Check(sql string) (*Result, error) {
	trimmed := stripTerminator(strings.TrimSpace(sql))
	normalized := strings.ToUpper(trimmed)

	if !strings.HasPrefix(normalized, "SELECT") {
		return nil, &Rejection{
			Reason:  ReasonNotSelect,
			Message: "Consulta no permitida (Solo SELECT).",
		}
	}

	if match := forbiddenPattern.FindString(normalized); match != "" {
		return nil, &Rejection{
			Reason:  ReasonUnsafeKeyword,
			Message: "Consulta rechazada por políticas de seguridad.",
			Detail:  "forbidden token " + match,
		}
	}

	// Exactly one statement.
	if strings.Contains(normalized, ";") {
		return nil, &Rejection{
			Reason:  ReasonUnsafeKeyword,
			Message: "Consulta rechazada por políticas de seguridad.",
			Detail:  "multiple statements",
		}
	}

	if !g.tableScope.MatchString(normalized) {
		return nil, g.wrongTable("table not referenced")
	}
	for _, foreign := range g.foreignScope {
		if foreign.MatchString(normalized) {
			return nil, g.wrongTable("another table referenced")
		}
	}

	executable := g.RewriteNumericCasts(trimmed)
	return &Result{
		Normalized: normalized,
		Executable: executable,
		Rewritten:  executable != trimmed,
	}, nil
}

// RewriteNumericCasts turns SUM(precio) into SUM(precio::NUMERIC) for every
// numeric text column. Already cast columns are left as they are.
func (g *Guard) RewriteNumericCasts(sql string) string {
	for _, rule := range g.casts {
		sql = rule.pattern.ReplaceAllString(sql, "${1}("+rule.column+"::NUMERIC)")
	}
	return sql
}

func (g *Guard) wrongTable(detail string) *Rejection {
	return &Rejection{
		Reason:  ReasonWrongTable,
		Message: fmt.Sprintf("Solo permitidas consultas a la tabla '%s'.", g.table),
		Detail:  detail,
	}
}

func stripTerminator(sql string) string {
	return strings.TrimSuffix(sql, ";")
}

// scopePattern matches FROM dhm, FROM "dhm", FROM public.dhm, JOIN "public"."dhm".
func scopePattern(table string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+("?public"?\.)?"?` + regexp.QuoteMeta(table) + `"?\b`)
}

func castRules(columns []string) []castRule {
	rules := make([]castRule, 0, len(columns))
	for _, col := range columns {
		rules = append(rules, castRule{
			column:  col,
			pattern: regexp.MustCompile(`(?i)\b(SUM|AVG|MIN|MAX)\(\s*` + regexp.QuoteMeta(col) + `\s*\)`),
		})
	}
	return rules
}
