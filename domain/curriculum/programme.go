package curriculum

// StudyProgramme is a curriculum offered by the faculty.
type StudyProgramme struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Placement is where a module is scheduled within a study programme.
type Placement struct {
	ModuleID int64 `json:"moduleId"`
	Semester int   `json:"semester"`
}
