package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fsg1/fmms/domain/curriculum"
	"github.com/fsg1/fmms/domain/fault"
	"github.com/fsg1/fmms/ports"
)

// CurriculumStore implements ports.CurriculumSource with SQLite.
type CurriculumStore struct {
	db *DB
}

// NewCurriculumStore creates a new SQLite curriculum store.
func NewCurriculumStore(db *DB) *CurriculumStore {
	return &CurriculumStore{db: db}
}

// ListStudyProgrammes returns every study programme ordered by code.
func (s *CurriculumStore) ListStudyProgrammes(ctx context.Context) ([]curriculum.StudyProgramme, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT id, code, name FROM study_programme ORDER BY code`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	programmes := []curriculum.StudyProgramme{}
	for rows.Next() {
		var p curriculum.StudyProgramme
		if err := rows.Scan(&p.ID, &p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("scan study programme: %w", err)
		}
		programmes = append(programmes, p)
	}
	return programmes, classify(rows.Err())
}

// GetStudyProgramme retrieves a study programme by ID.
func (s *CurriculumStore) GetStudyProgramme(ctx context.Context, id int64) (curriculum.StudyProgramme, error) {
	var p curriculum.StudyProgramme
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, code, name FROM study_programme WHERE id = ?`, id,
	).Scan(&p.ID, &p.Code, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fault.NotFound("get study programme", fmt.Sprintf("study programme %d", id))
	}
	if err != nil {
		return p, classify(err)
	}
	return p, nil
}

// SemesterRows returns the overview rows of a study programme ordered by
// semester and module code. Column order follows the overview view.
func (s *CurriculumStore) SemesterRows(ctx context.Context, studyProgrammeID int64) ([]curriculum.FlatModuleRecord, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT study_programme, name, semester, module_id, code, module_name, credits, elective
		FROM curriculum_overview
		WHERE study_programme_id = ?
		ORDER BY semester, code
	`, studyProgrammeID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []curriculum.FlatModuleRecord{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan overview row: %w", err)
		}
		rec := make(curriculum.FlatModuleRecord, len(cols))
		for i, name := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[i] = curriculum.Column{Name: name, Value: v}
		}
		records = append(records, rec)
	}
	return records, classify(rows.Err())
}

// FindModule looks up a module by code within a study programme.
func (s *CurriculumStore) FindModule(ctx context.Context, studyProgrammeID int64, code string) (curriculum.Placement, error) {
	var p curriculum.Placement
	err := s.db.DB.QueryRowContext(ctx, `
		SELECT cm.module_id, cm.semester
		FROM curriculum_module cm
		JOIN module m ON m.module_id = cm.module_id
		WHERE cm.study_programme_id = ? AND m.code = ?
	`, studyProgrammeID, code).Scan(&p.ModuleID, &p.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fault.NotFound("find module", fmt.Sprintf("module %s in study programme %d", code, studyProgrammeID))
	}
	if err != nil {
		return p, classify(err)
	}
	return p, nil
}

// AddStudyProgramme inserts a study programme and returns its ID.
func (s *CurriculumStore) AddStudyProgramme(ctx context.Context, code, name string) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `INSERT INTO study_programme (code, name) VALUES (?, ?)`, code, name)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// Schedule places a module in a semester of a study programme.
func (s *CurriculumStore) Schedule(ctx context.Context, studyProgrammeID, moduleID int64, semester int) error {
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO curriculum_module (study_programme_id, module_id, semester) VALUES (?, ?, ?)
		ON CONFLICT (study_programme_id, module_id) DO UPDATE SET semester = excluded.semester
	`, studyProgrammeID, moduleID, semester)
	return classify(err)
}

// Ensure interface compliance.
var _ ports.CurriculumSource = (*CurriculumStore)(nil)
