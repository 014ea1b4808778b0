// Package revision turns a module edit document into an ordered plan of
// per-table write operations. Planning is pure: no I/O, no clock.
package revision

// Document is a full edit of one module: its scalar attributes plus every
// child collection. Each collection replaces the stored one wholesale;
// an empty or absent collection clears it.
type Document struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Credits       *int   `json:"credits"`
	LecturerID    *int64 `json:"lecturerId,omitempty"`
	DurationWeeks int    `json:"durationWeeks"`
	Elective      bool   `json:"elective"`

	Descriptions            []Description            `json:"descriptions"`
	Topics                  []string                 `json:"topics"`
	LiteratureReferences    []LiteratureReference    `json:"literatureReferences"`
	PrerequisiteModuleIDs   []int64                  `json:"prerequisiteModuleIds"`
	AssessmentComponents    []AssessmentComponent    `json:"assessmentComponents"`
	LearningGoals           []LearningGoal           `json:"learningGoals"`
	ConstituentPartMappings []ConstituentPartMapping `json:"constituentPartMappings"`
}

// Description is the descriptive text of a module.
type Description struct {
	Introduction   string `json:"introduction"`
	Content        string `json:"content"`
	AdditionalInfo string `json:"additionalInfo"`
}

// LiteratureReference is a book, reader or article used in a module.
type LiteratureReference struct {
	Type        string `json:"type"` // BOOK, READER, ARTICLE, ...
	Description string `json:"description"`
}

// AssessmentComponent is one graded part of a module's assessment.
type AssessmentComponent struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	Weight       float64 `json:"weight"`
	MinimumGrade float64 `json:"minimumGrade"`
	Remarks      string  `json:"remarks"`
}

// LearningGoal is a goal students must reach in the module.
type LearningGoal struct {
	Text      string  `json:"text"`
	Weight    float64 `json:"weight"`
	Mandatory bool    `json:"mandatory"`
}

// ConstituentPartMapping links a learning goal (1-based position in
// Document.LearningGoals) to the assessment component that tests it.
type ConstituentPartMapping struct {
	LearningGoal        int    `json:"learningGoal"`
	AssessmentComponent string `json:"assessmentComponent"`
}

// IntPtr returns a pointer to n. Handy for building documents in code.
func IntPtr(n int) *int {
	return &n
}
