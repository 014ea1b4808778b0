// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"strconv"

	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
)

// TxState is the state of one plan execution.
type TxState int

const (
	StateIdle TxState = iota
	StateOpen
	StateCommitted
	StateRolledBack
)

func (s TxState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// ExecResult reports how far an execution got.
type ExecResult struct {
	State        TxState
	Applied      int   // operations executed successfully
	RowsAffected int64 // summed over applied operations
}

// Execute applies every operation of plan, in order, inside one transaction
// of uow. The first failing operation stops execution: the transaction is
// rolled back and later operations are never sent to the store. Nothing is
// retried. On success every operation becomes visible at once.
//
// An update of the module row that affects no row means the module does
// not exist; it is reported as fault.ErrNotFound and rolls back.
func Execute(ctx context.Context, uow ports.UnitOfWork, plan revision.Plan) (ExecResult, error) {
	var res ExecResult

	tx, err := uow.Begin(ctx)
	if err != nil {
		return res, classify("begin", fault.NoIndex, "", err)
	}
	res.State = StateOpen

	for i, op := range plan {
		if err := ctx.Err(); err != nil {
			return rollback(tx, res, classify("apply", i, op.Table, err))
		}

		n, err := tx.Apply(ctx, op)
		if err != nil {
			return rollback(tx, res, classify("apply", i, op.Table, err))
		}
		if op.Kind == revision.UpdateScalarRow && n == 0 {
			nf := fault.NotFound("apply", "module "+strconv.FormatInt(op.ModuleID, 10))
			nf.Index, nf.Table = i, op.Table
			return rollback(tx, res, nf)
		}

		res.Applied++
		res.RowsAffected += n
	}

	if err := tx.Commit(); err != nil {
		return rollback(tx, res, classify("commit", fault.NoIndex, "", err))
	}
	res.State = StateCommitted
	return res, nil
}

func rollback(tx ports.Tx, res ExecResult, cause error) (ExecResult, error) {
	res.State = StateRolledBack
	if err := tx.Rollback(); err != nil {
		return res, errors.Join(cause, classify("rollback", fault.NoIndex, "", err))
	}
	return res, cause
}

// classify wraps a store error as ErrStoreUnavailable when the adapter
// marked it as connection loss, and as ErrTransaction otherwise.
func classify(op string, index int, table string, err error) error {
	if errors.Is(err, fault.ErrStoreUnavailable) {
		return fault.Unavailable(op, index, table, err)
	}
	return fault.Transaction(op, index, table, err)
}
