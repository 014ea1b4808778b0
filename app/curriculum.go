package app

import (
	"context"
	"strconv"

	"github.com/fsg1/fmms/adapters/metrics"
	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/domain/revision"
	"github.com/fsg1/fmms/ports"
	"github.com/rs/zerolog"
)

// CurriculumService answers curriculum queries by grouping overview rows
// from the source into the semester tree.
type CurriculumService struct {
	source  ports.CurriculumSource
	modules ports.ModuleReader
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewCurriculumService creates a new curriculum service. m may be nil.
func NewCurriculumService(source ports.CurriculumSource, modules ports.ModuleReader, m *metrics.Collector, logger zerolog.Logger) *CurriculumService {
	return &CurriculumService{
		source:  source,
		modules: modules,
		metrics: m,
		logger:  logger,
	}
}

// ModuleInfo is a module as taught in one study programme: where it is
// scheduled plus everything stored for it.
type ModuleInfo struct {
	ID               int64 `json:"id"`
	StudyProgrammeID int64 `json:"studyProgrammeId"`
	Semester         int   `json:"semester"`
	revision.Document
}

// ListCurricula returns every study programme.
func (s *CurriculumService) ListCurricula(ctx context.Context) ([]curriculum.StudyProgramme, error) {
	return s.source.ListStudyProgrammes(ctx)
}

// Semesters returns the semester tree of a study programme. An unknown
// programme is fault.ErrNotFound; a programme without modules yields an
// empty tree.
func (s *CurriculumService) Semesters(ctx context.Context, programmeID int64) (curriculum.Tree, error) {
	if _, err := s.source.GetStudyProgramme(ctx, programmeID); err != nil {
		return curriculum.Tree{}, err
	}

	rows, err := s.source.SemesterRows(ctx, programmeID)
	if err != nil {
		s.logger.Error().Err(err).
			Int64("study_programme_id", programmeID).
			Msg("failed to load curriculum rows")
		s.observe("error", 0)
		return curriculum.Tree{}, err
	}

	tree, err := curriculum.Aggregate(rows)
	if err != nil {
		s.logger.Error().Err(err).
			Int64("study_programme_id", programmeID).
			Int("rows", len(rows)).
			Msg("curriculum rows rejected")
		s.observe("invalid", 0)
		return curriculum.Tree{}, err
	}

	s.logger.Debug().
		Int64("study_programme_id", programmeID).
		Int("semesters", len(tree.Semesters)).
		Int("modules", tree.ModuleCount()).
		Msg("curriculum aggregated")
	s.observe("ok", tree.ModuleCount())
	return tree, nil
}

// Semester returns one semester of a study programme's tree.
func (s *CurriculumService) Semester(ctx context.Context, programmeID int64, semester int) (curriculum.SemesterNode, error) {
	tree, err := s.Semesters(ctx, programmeID)
	if err != nil {
		return curriculum.SemesterNode{}, err
	}
	node, ok := tree.Semester(semester)
	if !ok {
		return curriculum.SemesterNode{}, fault.NotFound("get semester", "semester "+strconv.Itoa(semester))
	}
	return node, nil
}

// Module returns the module with the given code as scheduled in a study
// programme. An unknown programme, or a module not scheduled in it, is
// fault.ErrNotFound.
func (s *CurriculumService) Module(ctx context.Context, programmeID int64, code string) (ModuleInfo, error) {
	if _, err := s.source.GetStudyProgramme(ctx, programmeID); err != nil {
		return ModuleInfo{}, err
	}
	placement, err := s.source.FindModule(ctx, programmeID, code)
	if err != nil {
		return ModuleInfo{}, err
	}
	doc, err := s.modules.GetRevision(ctx, placement.ModuleID)
	if err != nil {
		s.logger.Error().Err(err).
			Int64("study_programme_id", programmeID).
			Int64("module_id", placement.ModuleID).
			Msg("scheduled module could not be loaded")
		return ModuleInfo{}, err
	}
	return ModuleInfo{
		ID:               placement.ModuleID,
		StudyProgrammeID: programmeID,
		Semester:         placement.Semester,
		Document:         doc,
	}, nil
}

func (s *CurriculumService) observe(outcome string, modules int) {
	if s.metrics == nil {
		return
	}
	s.metrics.Aggregations.WithLabelValues(outcome).Inc()
	s.metrics.AggregatedModules.Add(float64(modules))
}
