package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/ports"
)

// CurriculumStore is an in-memory implementation of ports.CurriculumSource.
type CurriculumStore struct {
	mu         sync.RWMutex
	programmes map[int64]curriculum.StudyProgramme
	records    map[int64][]curriculum.FlatModuleRecord // by study programme ID
	placements map[int64]map[string]curriculum.Placement // by study programme ID, module code
	err        error
}

// NewCurriculumStore creates an empty curriculum store.
func NewCurriculumStore() *CurriculumStore {
	return &CurriculumStore{
		programmes: make(map[int64]curriculum.StudyProgramme),
		records:    make(map[int64][]curriculum.FlatModuleRecord),
		placements: make(map[int64]map[string]curriculum.Placement),
	}
}

// AddProgramme stores a study programme.
func (s *CurriculumStore) AddProgramme(p curriculum.StudyProgramme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programmes[p.ID] = p
}

// AddRecords appends overview rows for a study programme, in row source order.
func (s *CurriculumStore) AddRecords(programmeID int64, records ...curriculum.FlatModuleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[programmeID] = append(s.records[programmeID], records...)
}

// Schedule places the module with the given code in a semester of a study
// programme.
func (s *CurriculumStore) Schedule(programmeID int64, code string, p curriculum.Placement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placements[programmeID] == nil {
		s.placements[programmeID] = make(map[string]curriculum.Placement)
	}
	s.placements[programmeID][code] = p
}

// Fail makes every query return err. Pass nil to reset.
func (s *CurriculumStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ListStudyProgrammes returns every study programme ordered by code.
func (s *CurriculumStore) ListStudyProgrammes(ctx context.Context) ([]curriculum.StudyProgramme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make([]curriculum.StudyProgramme, 0, len(s.programmes))
	for _, p := range s.programmes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// GetStudyProgramme returns one study programme.
func (s *CurriculumStore) GetStudyProgramme(ctx context.Context, id int64) (curriculum.StudyProgramme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return curriculum.StudyProgramme{}, s.err
	}
	p, ok := s.programmes[id]
	if !ok {
		return curriculum.StudyProgramme{}, fault.NotFound("get study programme", fmt.Sprintf("study programme %d", id))
	}
	return p, nil
}

// SemesterRows returns the stored rows of a study programme.
func (s *CurriculumStore) SemesterRows(ctx context.Context, studyProgrammeID int64) ([]curriculum.FlatModuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	rows := s.records[studyProgrammeID]
	out := make([]curriculum.FlatModuleRecord, len(rows))
	copy(out, rows)
	return out, nil
}

// FindModule returns the placement recorded with Schedule.
func (s *CurriculumStore) FindModule(ctx context.Context, studyProgrammeID int64, code string) (curriculum.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return curriculum.Placement{}, s.err
	}
	p, ok := s.placements[studyProgrammeID][code]
	if !ok {
		return curriculum.Placement{}, fault.NotFound("find module", fmt.Sprintf("module %s in study programme %d", code, studyProgrammeID))
	}
	return p, nil
}

// Ensure interface compliance.
var _ ports.CurriculumSource = (*CurriculumStore)(nil)
