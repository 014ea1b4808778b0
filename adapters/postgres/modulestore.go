package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsg1/fmms/adapters/sqlstmt"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
	"github.com/jackc/pgx/v5"
)

// ModuleStore implements ports.ModuleStore with PostgreSQL.
type ModuleStore struct {
	db *DB
}

// NewModuleStore creates a new PostgreSQL module store.
func NewModuleStore(db *DB) *ModuleStore {
	return &ModuleStore{db: db}
}

// GetRevision reads the module row and every child table in one
// repeatable-read transaction and rebuilds the document.
func (s *ModuleStore) GetRevision(ctx context.Context, moduleID int64) (revision.Document, error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return revision.Document{}, classify(err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	rows, err := tx.Query(ctx, sqlstmt.SelectModule(sqlstmt.Dollar), moduleID)
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
		query, err := sqlstmt.SelectChildren(table, sqlstmt.Dollar)
		if err != nil {
			return revision.Document{}, err
		}
		rows, err := tx.Query(ctx, query, moduleID)
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

// Begin opens a read-committed write transaction.
func (s *ModuleStore) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &moduleTx{tx: tx, ctx: ctx}, nil
}

type moduleTx struct {
	tx  pgx.Tx
	ctx context.Context
}

func (t *moduleTx) Apply(ctx context.Context, op revision.Operation) (int64, error) {
	stmt, err := sqlstmt.Build(op, sqlstmt.Dollar)
	if err != nil {
		return 0, err
	}
	tag, err := t.tx.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func (t *moduleTx) Commit() error {
	return classify(t.tx.Commit(t.ctx))
}

// Rollback runs even when the request context is already done.
func (t *moduleTx) Rollback() error {
	err := t.tx.Rollback(context.WithoutCancel(t.ctx))
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return classify(err)
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
