package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/ports"
	"github.com/jackc/pgx/v5"
)

// CurriculumStore implements ports.CurriculumSource with PostgreSQL.
type CurriculumStore struct {
	db *DB
}

// NewCurriculumStore creates a new PostgreSQL curriculum store.
func NewCurriculumStore(db *DB) *CurriculumStore {
	return &CurriculumStore{db: db}
}

// ListStudyProgrammes returns every study programme ordered by code.
func (s *CurriculumStore) ListStudyProgrammes(ctx context.Context) ([]curriculum.StudyProgramme, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id, code, name FROM study_programme ORDER BY code`)
	if err != nil {
		return nil, classify(err)
	}
	programmes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[curriculum.StudyProgramme])
	if err != nil {
		return nil, classify(err)
	}
	if programmes == nil {
		programmes = []curriculum.StudyProgramme{}
	}
	return programmes, nil
}

// GetStudyProgramme retrieves a study programme by ID.
func (s *CurriculumStore) GetStudyProgramme(ctx context.Context, id int64) (curriculum.StudyProgramme, error) {
	var p curriculum.StudyProgramme
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, code, name FROM study_programme WHERE id = $1`, id,
	).Scan(&p.ID, &p.Code, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fault.NotFound("get study programme", fmt.Sprintf("study programme %d", id))
	}
	return p, classify(err)
}

// SemesterRows returns the overview rows of a study programme ordered by
// semester and module code.
func (s *CurriculumStore) SemesterRows(ctx context.Context, studyProgrammeID int64) ([]curriculum.FlatModuleRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT study_programme, name, semester, module_id, code, module_name, credits, elective
		FROM curriculum_overview
		WHERE study_programme_id = $1
		ORDER BY semester, code
	`, studyProgrammeID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := []curriculum.FlatModuleRecord{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan overview row: %w", err)
		}
		rec := make(curriculum.FlatModuleRecord, len(fields))
		for i, f := range fields {
			rec[i] = curriculum.Column{Name: f.Name, Value: vals[i]}
		}
		records = append(records, rec)
	}
	return records, classify(rows.Err())
}

// FindModule looks up a module by code within a study programme.
func (s *CurriculumStore) FindModule(ctx context.Context, studyProgrammeID int64, code string) (curriculum.Placement, error) {
	var p curriculum.Placement
	err := s.db.Pool.QueryRow(ctx, `
		SELECT cm.module_id, cm.semester
		FROM curriculum_module cm
		JOIN module m ON m.module_id = cm.module_id
		WHERE cm.study_programme_id = $1 AND m.code = $2
	`, studyProgrammeID, code).Scan(&p.ModuleID, &p.Semester)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fault.NotFound("find module", fmt.Sprintf("module %s in study programme %d", code, studyProgrammeID))
	}
	return p, classify(err)
}

// Ensure interface compliance.
var _ ports.CurriculumSource = (*CurriculumStore)(nil)
