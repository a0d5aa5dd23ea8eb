// Package query builds the parameterized call_analytics statements sent to the
// analytics store.
package query

import (
	"fmt"
	"strings"

	"github.com/dennisdiepolder/monti/callanalytics/internal/types"
)

// MaxRows caps every call query regardless of filters
const MaxRows = 10000

// Statement is a SQL text with "?" placeholders and the values bound to them
type Statement struct {
	SQL  string
	Args []any
}

// WhereBuilder collects AND-joined predicates with their arguments
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder creates an empty WhereBuilder
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause appends a raw predicate fragment such as "agent_id = ?"
func (wb *WhereBuilder) AddClause(clause string, args ...any) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddLowerBound adds "column >= ?" when ok is true
func (wb *WhereBuilder) AddLowerBound(column string, v int64, ok bool) *WhereBuilder {
	if ok {
		wb.AddClause(column+" >= ?", v)
	}
	return wb
}

// AddUpperBound adds "column <= ?" when ok is true
func (wb *WhereBuilder) AddUpperBound(column string, v int64, ok bool) *WhereBuilder {
	if ok {
		wb.AddClause(column+" <= ?", v)
	}
	return wb
}

// AddEquals adds "column = ?" for a non-empty value
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value != "" {
		wb.AddClause(column+" = ?", value)
	}
	return wb
}

// Build returns the AND-joined predicates without the WHERE keyword.
// An empty builder returns "".
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "", nil
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// CallQuery renders filtered SELECT statements against one table
type CallQuery struct {
	table string
}

// NewCallQuery validates the table name, which is interpolated into the SQL text
func NewCallQuery(table string) (*CallQuery, error) {
	if !isIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &CallQuery{table: table}, nil
}

// Build renders the statement for f. Predicates are appended in a fixed order
// so identical filters always produce identical SQL.
func (q *CallQuery) Build(f Filter) Statement {
	wb := NewWhereBuilder()

	start, hasStart := f.StartMillis()
	end, hasEnd := f.EndMillis()
	wb.AddLowerBound(types.ColCallStartTime, start, hasStart).
		AddUpperBound(types.ColCallStartTime, end, hasEnd).
		AddEquals(types.ColAgentID, f.AgentID).
		AddEquals(types.ColCallStatus, f.Status).
		AddEquals(types.ColCallOutcome, f.Outcome)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(types.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(q.table)

	where, args := wb.Build()
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	fmt.Fprintf(&sb, " LIMIT %d", MaxRows)

	return Statement{SQL: sb.String(), Args: args}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
