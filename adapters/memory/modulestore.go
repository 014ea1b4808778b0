// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
)

// ErrClosed is returned by operations on a finished transaction.
var ErrClosed = errors.New("memory: transaction already finished")

// tables is a full copy of the stored rows.
type tables struct {
	modules  map[int64]revision.Row
	children map[string]map[int64][]revision.Row
}

func (t tables) clone() tables {
	out := tables{
		modules:  make(map[int64]revision.Row, len(t.modules)),
		children: make(map[string]map[int64][]revision.Row, len(t.children)),
	}
	for id, row := range t.modules {
		out.modules[id] = cloneRow(row)
	}
	for table, byModule := range t.children {
		m := make(map[int64][]revision.Row, len(byModule))
		for id, rows := range byModule {
			cp := make([]revision.Row, len(rows))
			for i, r := range rows {
				cp[i] = cloneRow(r)
			}
			m[id] = cp
		}
		out.children[table] = m
	}
	return out
}

func cloneRow(r revision.Row) revision.Row {
	out := make(revision.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ModuleStore is an in-memory implementation of ports.ModuleStore.
// A transaction works on a private copy of the tables and publishes it on
// commit; concurrent commits are last-writer-wins.
type ModuleStore struct {
	mu   sync.RWMutex
	data tables

	// failure injection
	beginErr  error
	commitErr error
	failAt    int
	failErr   error

	applied   int
	commits   int
	rollbacks int
}

// NewModuleStore creates an empty module store.
func NewModuleStore() *ModuleStore {
	return &ModuleStore{
		data: tables{
			modules:  make(map[int64]revision.Row),
			children: make(map[string]map[int64][]revision.Row),
		},
		failAt: -1,
	}
}

// AddModule stores a module row directly, outside any transaction.
func (s *ModuleStore) AddModule(id int64, code, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.modules[id] = revision.Row{
		revision.ModuleIDColumn: id,
		"code":                  code,
		"name":                  name,
		"credits":               0,
		"lecturer_id":           nil,
		"duration_weeks":        0,
		"elective":              false,
	}
}

// FailBegin makes the next Begin calls return err. Pass nil to reset.
func (s *ModuleStore) FailBegin(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginErr = err
}

// FailCommit makes Commit return err. Pass nil to reset.
func (s *ModuleStore) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// FailAt makes the Apply call for the operation at index i (counted per
// transaction, from zero) return err. Pass a negative index to reset.
func (s *ModuleStore) FailAt(i int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = i
	s.failErr = err
}

// Applied returns how many operations were executed, across all transactions.
func (s *ModuleStore) Applied() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// Commits returns how many transactions were committed.
func (s *ModuleStore) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Rollbacks returns how many transactions were rolled back.
func (s *ModuleStore) Rollbacks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rollbacks
}

// Rows returns a copy of the committed rows of a child table for a module.
func (s *ModuleStore) Rows(table string, moduleID int64) []revision.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data.children[table][moduleID]
	out := make([]revision.Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

// GetRevision rebuilds the stored document of a module.
func (s *ModuleStore) GetRevision(ctx context.Context, moduleID int64) (revision.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	module, ok := s.data.modules[moduleID]
	if !ok {
		return revision.Document{}, fault.NotFound("get module", fmt.Sprintf("module %d", moduleID))
	}
	children := make(map[string][]revision.Row)
	for _, table := range revision.ChildTables() {
		children[table] = s.data.children[table][moduleID]
	}
	return revision.Assemble(module, children)
}

// Begin opens a transaction on a snapshot of the committed rows.
func (s *ModuleStore) Begin(ctx context.Context) (ports.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return &tx{store: s, work: s.data.clone()}, nil
}

// tx is one open transaction.
type tx struct {
	store *ModuleStore
	work  tables
	n     int
	done  bool
}

func (t *tx) Apply(ctx context.Context, op revision.Operation) (int64, error) {
	if t.done {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	i := t.n
	t.n++

	t.store.mu.Lock()
	failAt, failErr := t.store.failAt, t.store.failErr
	if failAt != i {
		t.store.applied++
	}
	t.store.mu.Unlock()

	if failAt == i {
		return 0, failErr
	}
	return t.work.apply(op)
}

func (t *tx) Commit() error {
	if t.done {
		return ErrClosed
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.done = true
	t.store.data = t.work
	t.store.commits++
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	t.store.rollbacks++
	t.store.mu.Unlock()
	return nil
}

func (t tables) apply(op revision.Operation) (int64, error) {
	if revision.ColumnsOf(op.Table) == nil {
		return 0, fmt.Errorf("no such table: %s", op.Table)
	}

	switch op.Kind {
	case revision.UpdateScalarRow:
		row, ok := t.modules[op.ModuleID]
		if !ok {
			return 0, nil
		}
		for _, f := range op.Fields {
			row[f.Column] = f.Value
		}
		return 1, nil

	case revision.DeleteChildRows:
		n := len(t.children[op.Table][op.ModuleID])
		delete(t.children[op.Table], op.ModuleID)
		return int64(n), nil

	case revision.InsertChildRow:
		if _, ok := t.modules[op.ModuleID]; !ok {
			return 0, fault.MarkConstraint(fmt.Errorf("FOREIGN KEY constraint failed: %s.module_id = %d", op.Table, op.ModuleID))
		}
		row := revision.RowOf(op)
		if ref, ok := row["required_module_id"].(int64); ok {
			if _, exists := t.modules[ref]; !exists {
				return 0, fault.MarkConstraint(fmt.Errorf("FOREIGN KEY constraint failed: %s.required_module_id = %d", op.Table, ref))
			}
		}
		if t.children[op.Table] == nil {
			t.children[op.Table] = make(map[int64][]revision.Row)
		}
		t.children[op.Table][op.ModuleID] = append(t.children[op.Table][op.ModuleID], row)
		return 1, nil
	}

	return 0, fmt.Errorf("unknown operation kind %v", op.Kind)
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
