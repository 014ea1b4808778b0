// Package fault defines the error taxonomy shared by the aggregation,
// planning and execution code. Callers classify failures with errors.Is
// against the package sentinels and read details from *Error.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input to the aggregator or planner.
	ErrValidation = errors.New("fmms: validation failed")

	// ErrNotFound marks the absence of a queried or updated entity.
	ErrNotFound = errors.New("fmms: entity not found")

	// ErrTransaction marks a failure while applying or committing a plan.
	ErrTransaction = errors.New("fmms: transaction failed")

	// ErrStoreUnavailable marks connectivity failures of the underlying store.
	ErrStoreUnavailable = errors.New("fmms: store unavailable")

	// ErrConstraint marks a store error caused by an integrity constraint
	// (foreign key, unique, check). It refines ErrTransaction and never
	// stands alone.
	ErrConstraint = errors.New("fmms: constraint violated")
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindTransaction Kind = "transaction"
	KindUnavailable Kind = "unavailable"
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindTransaction:
		return ErrTransaction
	case KindUnavailable:
		return ErrStoreUnavailable
	}
	return nil
}

// NoIndex is the Index of an Error that is not tied to a plan operation
// or input record.
const NoIndex = -1

// Error carries a classified failure with enough context to locate it:
// the operation that failed, the plan or record index, and the table.
type Error struct {
	Kind  Kind
	Op    string // "aggregate", "plan", "begin", "apply", "commit", ...
	Index int    // operation or record index, NoIndex when not applicable
	Table string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Index != NoIndex {
		msg += fmt.Sprintf(" #%d", e.Index)
	}
	if e.Table != "" {
		msg += " (" + e.Table + ")"
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validation reports malformed input at the given record or field index.
func Validation(op string, index int, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Index: index, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(op, what string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Index: NoIndex, Msg: what}
}

// Transaction reports a failed plan operation.
func Transaction(op string, index int, table string, err error) *Error {
	return &Error{Kind: KindTransaction, Op: op, Index: index, Table: table, Err: err}
}

// Unavailable reports a connectivity failure.
func Unavailable(op string, index int, table string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Index: index, Table: table, Err: err}
}

// KindOf returns the Kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrTransaction):
		return KindTransaction
	}
	return ""
}

// MarkUnavailable tags a driver error as a connectivity failure so that the
// executor reports it as ErrStoreUnavailable. Adapters call it for errors
// they recognise as connection loss.
func MarkUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}

// MarkConstraint tags a driver error as an integrity constraint violation.
func MarkConstraint(err error) error {
	if err == nil || errors.Is(err, ErrConstraint) {
		return err
	}
	return errors.Join(ErrConstraint, err)
}
