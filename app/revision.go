package app

import (
	"context"
	"time"

	"github.com/fsg1/fmms/adapters/metrics"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
	"github.com/rs/zerolog"
)

// RevisionService stores module edits: it plans the per-table writes of
// an edit and executes them as one transaction.
type RevisionService struct {
	store   ports.ModuleStore
	clock   ports.Clock
	idGen   ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// RevisionDeps contains dependencies for RevisionService.
type RevisionDeps struct {
	Store   ports.ModuleStore
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics *metrics.Collector // optional
	Logger  zerolog.Logger
}

// RevisionResult describes one applied edit.
type RevisionResult struct {
	ID         string // correlates log lines of one revision
	ModuleID   int64
	Operations int
	Exec       ExecResult
	Duration   time.Duration
}

// NewRevisionService creates a new revision service.
func NewRevisionService(deps RevisionDeps) *RevisionService {
	return &RevisionService{
		store:   deps.Store,
		clock:   deps.Clock,
		idGen:   deps.IDGen,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// Get returns what is currently stored for a module.
func (s *RevisionService) Get(ctx context.Context, moduleID int64) (revision.Document, error) {
	return s.store.GetRevision(ctx, moduleID)
}

// Plan returns the write plan for doc without executing it.
func (s *RevisionService) Plan(moduleID int64, doc revision.Document) (revision.Plan, error) {
	return revision.Build(moduleID, doc)
}

// Apply replaces the stored module with doc. Either every write of the
// edit is committed or none is.
func (s *RevisionService) Apply(ctx context.Context, moduleID int64, doc revision.Document) (RevisionResult, error) {
	res := RevisionResult{ID: s.idGen.New(), ModuleID: moduleID}

	plan, err := revision.Build(moduleID, doc)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("revision_id", res.ID).
			Int64("module_id", moduleID).
			Msg("module edit rejected")
		s.observe("invalid", res)
		return res, err
	}
	res.Operations = len(plan)

	start := s.clock.Now()
	res.Exec, err = Execute(ctx, s.store, plan)
	res.Duration = s.clock.Now().Sub(start)

	if err != nil {
		s.logger.Error().Err(err).
			Str("revision_id", res.ID).
			Int64("module_id", moduleID).
			Int("operations", res.Operations).
			Int("applied", res.Exec.Applied).
			Str("state", res.Exec.State.String()).
			Msg("module edit failed")
		s.observe(outcome(err), res)
		return res, err
	}

	s.logger.Info().
		Str("revision_id", res.ID).
		Int64("module_id", moduleID).
		Int("operations", res.Operations).
		Int64("rows_affected", res.Exec.RowsAffected).
		Dur("duration", res.Duration).
		Msg("module edit committed")
	s.observe("committed", res)
	if s.metrics != nil {
		for _, kind := range []revision.OpKind{revision.UpdateScalarRow, revision.DeleteChildRows, revision.InsertChildRow} {
			s.metrics.RevisionOperations.WithLabelValues(kind.String()).Add(float64(plan.Count(kind)))
		}
	}
	return res, nil
}

func outcome(err error) string {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return "not_found"
	case fault.KindUnavailable:
		return "unavailable"
	}
	return "rolled_back"
}

func (s *RevisionService) observe(outcome string, res RevisionResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.Revisions.WithLabelValues(outcome).Inc()
	if res.Exec.State != StateIdle {
		s.metrics.RevisionDuration.Observe(res.Duration.Seconds())
	}
	if outcome == "unavailable" {
		s.metrics.StoreErrors.WithLabelValues(string(fault.KindUnavailable)).Inc()
	}
}
