// Package sqlstmt renders revision operations as parameterized SQL.
// Table and column names are checked against the revision schema before
// they are spliced into a statement; values are always bound parameters.
package sqlstmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fsg1/fmms/domain/revision"
)

// Placeholder returns the bind marker for the n-th parameter (1-based).
type Placeholder func(n int) string

// Question renders "?" markers (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" markers (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Statement is one SQL statement with its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Build renders op for a dialect using ph for parameters.
func Build(op revision.Operation, ph Placeholder) (Statement, error) {
	allowed := revision.ColumnsOf(op.Table)
	if allowed == nil {
		return Statement{}, fmt.Errorf("sqlstmt: unknown table %q", op.Table)
	}
	for _, col := range op.Columns() {
		if !contains(allowed, col) {
			return Statement{}, fmt.Errorf("sqlstmt: unknown column %q in table %q", col, op.Table)
		}
	}

	switch op.Kind {
	case revision.UpdateScalarRow:
		if op.Table != revision.ModuleTable {
			return Statement{}, fmt.Errorf("sqlstmt: update of %q, only %q rows are updated", op.Table, revision.ModuleTable)
		}
		if len(op.Fields) == 0 {
			return Statement{}, fmt.Errorf("sqlstmt: update without fields")
		}
		sets := make([]string, len(op.Fields))
		for i, f := range op.Fields {
			sets[i] = f.Column + " = " + ph(i+1)
		}
		return Statement{
			SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
				op.Table, strings.Join(sets, ", "), revision.ModuleIDColumn, ph(len(op.Fields)+1)),
			Args: append(op.Values(), op.ModuleID),
		}, nil

	case revision.DeleteChildRows:
		if op.Table == revision.ModuleTable {
			return Statement{}, fmt.Errorf("sqlstmt: refusing to delete from %q", op.Table)
		}
		return Statement{
			SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s = %s", op.Table, revision.ModuleIDColumn, ph(1)),
			Args: []any{op.ModuleID},
		}, nil

	case revision.InsertChildRow:
		if op.Table == revision.ModuleTable {
			return Statement{}, fmt.Errorf("sqlstmt: refusing to insert into %q", op.Table)
		}
		cols := append([]string{revision.ModuleIDColumn}, op.Columns()...)
		marks := make([]string, len(cols))
		for i := range cols {
			marks[i] = ph(i + 1)
		}
		return Statement{
			SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				op.Table, strings.Join(cols, ", "), strings.Join(marks, ", ")),
			Args: append([]any{op.ModuleID}, op.Values()...),
		}, nil
	}

	return Statement{}, fmt.Errorf("sqlstmt: unknown operation kind %v", op.Kind)
}

// SelectChildren renders the query reading a module's rows of a child
// table, positional tables ordered by position and the rest by insertion.
func SelectChildren(table string, ph Placeholder) (string, error) {
	cols := revision.ColumnsOf(table)
	if cols == nil || table == revision.ModuleTable {
		return "", fmt.Errorf("sqlstmt: unknown child table %q", table)
	}
	order := "id"
	if contains(cols, "position") {
		order = "position"
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s",
		strings.Join(cols, ", "), table, revision.ModuleIDColumn, ph(1), order), nil
}

// SelectModule renders the query reading a module's scalar row.
func SelectModule(ph Placeholder) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(revision.ScalarColumns, ", "), revision.ModuleTable, revision.ModuleIDColumn, ph(1))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Rows is the iteration surface shared by database/sql and pgx result sets.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Collect scans every remaining row into a revision.Row keyed by cols.
// cols must match the selected columns in order.
func Collect(rows Rows, cols []string) ([]revision.Row, error) {
	var out []revision.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(revision.Row, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
