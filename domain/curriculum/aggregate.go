package curriculum

import "github.com/fsg1/fmms/domain/fault"

// SemesterNode groups the modules taught in one semester.
type SemesterNode struct {
	Semester int             `json:"semester"`
	Modules  []ModuleSummary `json:"modules"`
}

// Tree is the aggregated curriculum: semesters in order of first
// appearance in the input rows.
type Tree struct {
	Semesters []SemesterNode `json:"semesters"`
}

// Semester returns the node for semester n.
func (t Tree) Semester(n int) (SemesterNode, bool) {
	for _, s := range t.Semesters {
		if s.Semester == n {
			return s, true
		}
	}
	return SemesterNode{}, false
}

// ModuleCount returns the number of modules across all semesters.
func (t Tree) ModuleCount() int {
	n := 0
	for _, s := range t.Semesters {
		n += len(s.Modules)
	}
	return n
}

// Aggregate groups flat module records into semesters.
//
// Semesters appear in the order their number is first seen in records, not
// in numeric order. Modules keep their relative input order within a
// semester and are not deduplicated. A record without an integer semester
// fails the whole aggregation.
// This is a PURE function.
func Aggregate(records []FlatModuleRecord) (Tree, error) {
	tree := Tree{Semesters: []SemesterNode{}}
	if len(records) == 0 {
		return tree, nil
	}

	// First pass: one node per distinct semester, in first-appearance order.
	semesters := make([]int, len(records))
	index := make(map[int]int)
	for i, r := range records {
		n, err := r.Semester()
		if err != nil {
			return Tree{}, fault.Validation("aggregate", i, "%v", err)
		}
		semesters[i] = n
		if _, seen := index[n]; seen {
			continue
		}
		index[n] = len(tree.Semesters)
		tree.Semesters = append(tree.Semesters, SemesterNode{Semester: n, Modules: []ModuleSummary{}})
	}

	// Second pass: attach each cleaned record to its node.
	for i, r := range records {
		node := &tree.Semesters[index[semesters[i]]]
		node.Modules = append(node.Modules, Clean(r))
	}

	return tree, nil
}
