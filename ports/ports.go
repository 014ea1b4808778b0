// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/revision"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// CurriculumSource is the row source for curriculum queries.
type CurriculumSource interface {
	// ListStudyProgrammes returns every study programme, ordered by code.
	ListStudyProgrammes(ctx context.Context) ([]curriculum.StudyProgramme, error)

	// GetStudyProgramme returns one study programme.
	// Returns an error matching fault.ErrNotFound if it does not exist.
	GetStudyProgramme(ctx context.Context, id int64) (curriculum.StudyProgramme, error)

	// SemesterRows returns one record per module in the study programme,
	// each carrying at least semester, name and study_programme columns.
	// An empty slice is a valid result.
	SemesterRows(ctx context.Context, studyProgrammeID int64) ([]curriculum.FlatModuleRecord, error)

	// FindModule returns where the module with the given code is scheduled
	// in the study programme.
	// Returns an error matching fault.ErrNotFound if it is not scheduled there.
	FindModule(ctx context.Context, studyProgrammeID int64, code string) (curriculum.Placement, error)
}

// ModuleReader loads what is currently stored for a module, in the same
// shape an edit is submitted in.
type ModuleReader interface {
	// GetRevision returns the module's scalar attributes and child collections.
	// Returns an error matching fault.ErrNotFound if the module does not exist.
	GetRevision(ctx context.Context, moduleID int64) (revision.Document, error)
}

// UnitOfWork opens transactions against the relational store.
type UnitOfWork interface {
	// Begin opens a transaction bound to ctx. When ctx ends before Commit
	// the transaction is rolled back by the store.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one open transaction. A Tx is used by one goroutine at a time.
type Tx interface {
	// Apply executes one write operation and returns the affected row count.
	// Store errors are returned as-is, never swallowed.
	Apply(ctx context.Context, op revision.Operation) (int64, error)

	// Commit makes every applied operation visible.
	Commit() error

	// Rollback discards every applied operation. Calling it after Commit
	// or a previous Rollback is a no-op that returns nil.
	Rollback() error
}

// ModuleStore combines the module read and write ports a store provides.
type ModuleStore interface {
	ModuleReader
	UnitOfWork
}
