package revision

// ModuleTable is the table holding a module's scalar attributes.
const ModuleTable = "module"

// ModuleIDColumn is the key column of the module table and the owner
// column of every child table.
const ModuleIDColumn = "module_id"

// ScalarColumns are the module table columns an edit overwrites, in the
// order the update operation lists them.
var ScalarColumns = []string{"code", "name", "credits", "lecturer_id", "duration_weeks", "elective"}

// Collection describes one child collection of a Document and the table
// it is stored in.
type Collection struct {
	Name    string   // field name in the document
	Table   string   // child table
	Columns []string // inserted columns, module_id excluded
	rows    func(Document) [][]any
}

// collections is the declared replacement order. Tables that reference
// other child tables by natural key come after the tables they reference.
var collections = []Collection{
	{
		Name:    "descriptions",
		Table:   "module_description",
		Columns: []string{"introduction", "content", "additional_info"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.Descriptions))
			for i, v := range d.Descriptions {
				out[i] = []any{v.Introduction, v.Content, v.AdditionalInfo}
			}
			return out
		},
	},
	{
		Name:    "topics",
		Table:   "module_topic",
		Columns: []string{"position", "description"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.Topics))
			for i, v := range d.Topics {
				out[i] = []any{i + 1, v}
			}
			return out
		},
	},
	{
		Name:    "literatureReferences",
		Table:   "module_literature",
		Columns: []string{"type", "description"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.LiteratureReferences))
			for i, v := range d.LiteratureReferences {
				out[i] = []any{v.Type, v.Description}
			}
			return out
		},
	},
	{
		Name:    "prerequisiteModuleIds",
		Table:   "module_prerequisite",
		Columns: []string{"required_module_id"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.PrerequisiteModuleIDs))
			for i, v := range d.PrerequisiteModuleIDs {
				out[i] = []any{v}
			}
			return out
		},
	},
	{
		Name:    "assessmentComponents",
		Table:   "assessment_component",
		Columns: []string{"code", "description", "weight", "minimum_grade", "remarks"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.AssessmentComponents))
			for i, v := range d.AssessmentComponents {
				out[i] = []any{v.Code, v.Description, v.Weight, v.MinimumGrade, v.Remarks}
			}
			return out
		},
	},
	{
		Name:    "learningGoals",
		Table:   "learning_goal",
		Columns: []string{"position", "description", "weight", "mandatory"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.LearningGoals))
			for i, v := range d.LearningGoals {
				out[i] = []any{i + 1, v.Text, v.Weight, v.Mandatory}
			}
			return out
		},
	},
	{
		Name:    "constituentPartMappings",
		Table:   "learning_goal_assessment",
		Columns: []string{"learning_goal_position", "assessment_code"},
		rows: func(d Document) [][]any {
			out := make([][]any, len(d.ConstituentPartMappings))
			for i, v := range d.ConstituentPartMappings {
				out[i] = []any{v.LearningGoal, v.AssessmentComponent}
			}
			return out
		},
	},
}

// Collections returns the child collections in declared replacement order.
func Collections() []Collection {
	out := make([]Collection, len(collections))
	copy(out, collections)
	return out
}

// ChildTables returns the child table names in declared replacement order.
func ChildTables() []string {
	out := make([]string, len(collections))
	for i, c := range collections {
		out[i] = c.Table
	}
	return out
}

// Tables returns the module table followed by every child table, i.e.
// every table a plan may touch, in plan order.
func Tables() []string {
	return append([]string{ModuleTable}, ChildTables()...)
}

// ColumnsOf returns the writable columns of table, or nil if the table is
// not one a plan may touch.
func ColumnsOf(table string) []string {
	if table == ModuleTable {
		return ScalarColumns
	}
	for _, c := range collections {
		if c.Table == table {
			return c.Columns
		}
	}
	return nil
}
