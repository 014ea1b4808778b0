package revision

import (
	"fmt"
	"strings"

	"github.com/fsg1/fmms/domain/fault"
)

// Build derives the write plan for applying doc to module moduleID:
// one update of the module row, then for every collection in declared
// order a delete of the module's rows followed by one insert per element.
// Applying the same plan twice leaves the store as applying it once.
// This is a PURE function.
func Build(moduleID int64, doc Document) (Plan, error) {
	if err := Validate(moduleID, doc); err != nil {
		return nil, err
	}

	size := 1
	rows := make([][][]any, len(collections))
	for i, c := range collections {
		rows[i] = c.rows(doc)
		size += 1 + len(rows[i])
	}

	plan := make(Plan, 0, size)
	plan = append(plan, Operation{
		Kind:     UpdateScalarRow,
		Table:    ModuleTable,
		ModuleID: moduleID,
		Fields:   fields(ScalarColumns, scalarValues(doc)),
	})

	for i, c := range collections {
		plan = append(plan, Operation{Kind: DeleteChildRows, Table: c.Table, ModuleID: moduleID})
		for _, values := range rows[i] {
			plan = append(plan, Operation{
				Kind:     InsertChildRow,
				Table:    c.Table,
				ModuleID: moduleID,
				Fields:   fields(c.Columns, values),
			})
		}
	}

	return plan, nil
}

func scalarValues(doc Document) []any {
	var lecturer any
	if doc.LecturerID != nil {
		lecturer = *doc.LecturerID
	}
	return []any{doc.Code, doc.Name, *doc.Credits, lecturer, doc.DurationWeeks, doc.Elective}
}

func fields(columns []string, values []any) []Field {
	out := make([]Field, len(columns))
	for i, col := range columns {
		out[i] = Field{Column: col, Value: values[i]}
	}
	return out
}

// Validate checks that doc is structurally complete for module moduleID.
// It reports the first violation found.
func Validate(moduleID int64, doc Document) error {
	if moduleID <= 0 {
		return invalid("module id must be positive, got %d", moduleID)
	}
	if strings.TrimSpace(doc.Code) == "" {
		return invalid("code is required")
	}
	if strings.TrimSpace(doc.Name) == "" {
		return invalid("name is required")
	}
	if doc.Credits == nil {
		return invalid("credits is required")
	}
	if *doc.Credits < 0 {
		return invalid("credits must not be negative, got %d", *doc.Credits)
	}
	if doc.DurationWeeks < 0 {
		return invalid("durationWeeks must not be negative, got %d", doc.DurationWeeks)
	}

	for i, t := range doc.Topics {
		if strings.TrimSpace(t) == "" {
			return invalid("topics[%d] is empty", i)
		}
	}

	for i, l := range doc.LiteratureReferences {
		if strings.TrimSpace(l.Type) == "" {
			return invalid("literatureReferences[%d].type is required", i)
		}
	}

	seenPrereq := make(map[int64]bool)
	for i, id := range doc.PrerequisiteModuleIDs {
		if id <= 0 {
			return invalid("prerequisiteModuleIds[%d] must be positive, got %d", i, id)
		}
		if id == moduleID {
			return invalid("prerequisiteModuleIds[%d] refers to the module itself", i)
		}
		if seenPrereq[id] {
			return invalid("prerequisiteModuleIds[%d] duplicates module %d", i, id)
		}
		seenPrereq[id] = true
	}

	components := make(map[string]bool)
	for i, a := range doc.AssessmentComponents {
		if strings.TrimSpace(a.Code) == "" {
			return invalid("assessmentComponents[%d].code is required", i)
		}
		if components[a.Code] {
			return invalid("assessmentComponents[%d].code %q is not unique", i, a.Code)
		}
		if a.Weight < 0 {
			return invalid("assessmentComponents[%d].weight must not be negative", i)
		}
		components[a.Code] = true
	}

	for i, g := range doc.LearningGoals {
		if strings.TrimSpace(g.Text) == "" {
			return invalid("learningGoals[%d].text is required", i)
		}
		if g.Weight < 0 {
			return invalid("learningGoals[%d].weight must not be negative", i)
		}
	}

	mapped := make(map[ConstituentPartMapping]bool)
	for i, m := range doc.ConstituentPartMappings {
		if m.LearningGoal < 1 || m.LearningGoal > len(doc.LearningGoals) {
			return invalid("constituentPartMappings[%d].learningGoal %d is out of range 1..%d",
				i, m.LearningGoal, len(doc.LearningGoals))
		}
		if !components[m.AssessmentComponent] {
			return invalid("constituentPartMappings[%d].assessmentComponent %q is unknown",
				i, m.AssessmentComponent)
		}
		if mapped[m] {
			return invalid("constituentPartMappings[%d] is a duplicate", i)
		}
		mapped[m] = true
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fault.Validation("plan", fault.NoIndex, "%s", fmt.Sprintf(format, args...))
}
