package sqlite

import (
	"context"
	"fmt"

	"github.com/fsg1/fmms/domain/revision"
)

// CheckRevisionTables verifies that every table a revision plan writes
// exists with the planned columns and module_id, and that foreign keys only
// point at module, lecturer or child tables replaced earlier in the plan.
func (db *DB) CheckRevisionTables(ctx context.Context) error {
	tables := revision.Tables()
	position := make(map[string]int, len(tables))
	for i, t := range tables {
		position[t] = i
	}

	for i, table := range tables {
		cols, err := db.columns(ctx, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return fmt.Errorf("schema: table %s does not exist", table)
		}
		for _, col := range append([]string{revision.ModuleIDColumn}, revision.ColumnsOf(table)...) {
			if !cols[col] {
				return fmt.Errorf("schema: table %s has no column %s", table, col)
			}
		}

		if table == revision.ModuleTable {
			continue
		}
		refs, err := db.references(ctx, table)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			p, planned := position[ref]
			if planned && p >= i {
				return fmt.Errorf("schema: table %s references %s, which is replaced later", table, ref)
			}
		}
	}
	return nil
}

func (db *DB) columns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("schema: inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("schema: scan column: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (db *DB) references(ctx context.Context, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT "table" FROM pragma_foreign_key_list(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("schema: inspect foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("schema: scan foreign key: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
