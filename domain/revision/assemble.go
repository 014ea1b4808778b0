package revision

import (
	"fmt"
	"strconv"
)

// Row is one stored row keyed by column name. Values are whatever the
// store driver returns: integers, floats, strings, byte slices, bools or nil.
type Row map[string]any

// Assemble rebuilds a Document from the stored module row and the rows of
// each child table. Child rows must be in stored order; positional tables
// (topics, learning goals) are expected sorted by position.
// This is a PURE function.
func Assemble(module Row, children map[string][]Row) (Document, error) {
	var (
		doc Document
		err error
	)
	r := reader{}

	doc.Code = r.str(module, "code")
	doc.Name = r.str(module, "name")
	credits := int(r.int(module, "credits"))
	doc.Credits = &credits
	if v, ok := module["lecturer_id"]; ok && v != nil {
		id := r.int(module, "lecturer_id")
		doc.LecturerID = &id
	}
	doc.DurationWeeks = int(r.int(module, "duration_weeks"))
	doc.Elective = r.bool(module, "elective")

	for _, row := range children["module_description"] {
		doc.Descriptions = append(doc.Descriptions, Description{
			Introduction:   r.str(row, "introduction"),
			Content:        r.str(row, "content"),
			AdditionalInfo: r.str(row, "additional_info"),
		})
	}
	for _, row := range children["module_topic"] {
		doc.Topics = append(doc.Topics, r.str(row, "description"))
	}
	for _, row := range children["module_literature"] {
		doc.LiteratureReferences = append(doc.LiteratureReferences, LiteratureReference{
			Type:        r.str(row, "type"),
			Description: r.str(row, "description"),
		})
	}
	for _, row := range children["module_prerequisite"] {
		doc.PrerequisiteModuleIDs = append(doc.PrerequisiteModuleIDs, r.int(row, "required_module_id"))
	}
	for _, row := range children["assessment_component"] {
		doc.AssessmentComponents = append(doc.AssessmentComponents, AssessmentComponent{
			Code:         r.str(row, "code"),
			Description:  r.str(row, "description"),
			Weight:       r.float(row, "weight"),
			MinimumGrade: r.float(row, "minimum_grade"),
			Remarks:      r.str(row, "remarks"),
		})
	}
	for _, row := range children["learning_goal"] {
		doc.LearningGoals = append(doc.LearningGoals, LearningGoal{
			Text:      r.str(row, "description"),
			Weight:    r.float(row, "weight"),
			Mandatory: r.bool(row, "mandatory"),
		})
	}
	for _, row := range children["learning_goal_assessment"] {
		doc.ConstituentPartMappings = append(doc.ConstituentPartMappings, ConstituentPartMapping{
			LearningGoal:        int(r.int(row, "learning_goal_position")),
			AssessmentComponent: r.str(row, "assessment_code"),
		})
	}

	if r.err != nil {
		err = fmt.Errorf("assemble module: %w", r.err)
	}
	return doc, err
}

// reader converts driver values, remembering the first conversion failure.
type reader struct {
	err error
}

func (r *reader) fail(col string, v any) {
	if r.err == nil {
		r.err = fmt.Errorf("column %q: unexpected value %v (%T)", col, v, v)
	}
}

func (r *reader) str(row Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		r.fail(col, v)
		return ""
	}
}

func (r *reader) int(row Row, col string) int64 {
	switch v := row[col].(type) {
	case nil:
		return 0
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			r.fail(col, v)
		}
		return n
	default:
		r.fail(col, v)
		return 0
	}
}

func (r *reader) float(row Row, col string) float64 {
	switch v := row[col].(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			r.fail(col, v)
		}
		return f
	default:
		r.fail(col, v)
		return 0
	}
}

func (r *reader) bool(row Row, col string) bool {
	switch v := row[col].(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		r.fail(col, v)
		return false
	}
}

// RowOf builds the stored row an insert or update operation writes,
// module id included.
func RowOf(op Operation) Row {
	row := make(Row, len(op.Fields)+1)
	row[ModuleIDColumn] = op.ModuleID
	for _, f := range op.Fields {
		row[f.Column] = f.Value
	}
	return row
}
