package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fsg1/fmms/adapters/sqlstmt"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
)

// ModuleStore implements ports.ModuleStore with SQLite.
type ModuleStore struct {
	db *DB
}

// NewModuleStore creates a new SQLite module store.
func NewModuleStore(db *DB) *ModuleStore {
	return &ModuleStore{db: db}
}

// AddModule inserts a module row with default attributes and returns its ID.
func (s *ModuleStore) AddModule(ctx context.Context, code, name string) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `INSERT INTO module (code, name) VALUES (?, ?)`, code, name)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// AddLecturer inserts a lecturer and returns its ID.
func (s *ModuleStore) AddLecturer(ctx context.Context, name string) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `INSERT INTO lecturer (name) VALUES (?)`, name)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// GetRevision reads the module row and every child table in one read
// transaction and rebuilds the document.
func (s *ModuleStore) GetRevision(ctx context.Context, moduleID int64) (revision.Document, error) {
	tx, err := s.db.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return revision.Document{}, classify(err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, sqlstmt.SelectModule(sqlstmt.Question), moduleID)
	if err != nil {
		return revision.Document{}, classify(err)
	}
	modules, err := sqlstmt.Collect(rows, revision.ScalarColumns)
	rows.Close()
	if err != nil {
		return revision.Document{}, classify(err)
	}
	if len(modules) == 0 {
		return revision.Document{}, fault.NotFound("get module", fmt.Sprintf("module %d", moduleID))
	}

	children := make(map[string][]revision.Row)
	for _, table := range revision.ChildTables() {
		query, err := sqlstmt.SelectChildren(table, sqlstmt.Question)
		if err != nil {
			return revision.Document{}, err
		}
		rows, err := tx.QueryContext(ctx, query, moduleID)
		if err != nil {
			return revision.Document{}, classify(err)
		}
		children[table], err = sqlstmt.Collect(rows, revision.ColumnsOf(table))
		rows.Close()
		if err != nil {
			return revision.Document{}, classify(err)
		}
	}

	return revision.Assemble(modules[0], children)
}

// Begin opens a write transaction.
func (s *ModuleStore) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	return &moduleTx{tx: tx}, nil
}

type moduleTx struct {
	tx *sql.Tx
}

func (t *moduleTx) Apply(ctx context.Context, op revision.Operation) (int64, error) {
	stmt, err := sqlstmt.Build(op, sqlstmt.Question)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (t *moduleTx) Commit() error {
	return classify(t.tx.Commit())
}

func (t *moduleTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return classify(err)
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
