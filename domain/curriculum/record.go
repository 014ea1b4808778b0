// Package curriculum turns flat per-module rows into the nested
// curriculum → semester → module tree served to clients.
// All functions are pure - no side effects.
package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Column names the aggregator consumes. They drive grouping and filtering
// and are never emitted in a ModuleSummary.
const (
	ColumnSemester       = "semester"
	ColumnName           = "name"
	ColumnStudyProgramme = "study_programme"
)

// Column is one named value of a row, as produced by the row source.
// Value holds a scalar (string, bool, integer, float, nil) or a decoded
// JSON value.
type Column struct {
	Name  string
	Value any
}

// FlatModuleRecord is one row of the curriculum overview: one module,
// annotated with the semester it is taught in. Columns keep the order in
// which the row source returned them.
type FlatModuleRecord []Column

// Get returns the value of the named column.
func (r FlatModuleRecord) Get(name string) (any, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Semester returns the record's semester number. A missing or non-integer
// semester is an error: the row source is expected to always provide one.
func (r FlatModuleRecord) Semester() (int, error) {
	v, ok := r.Get(ColumnSemester)
	if !ok {
		return 0, fmt.Errorf("column %q is missing", ColumnSemester)
	}
	n, ok := asInt(v)
	if !ok {
		return 0, fmt.Errorf("column %q is not an integer: %v (%T)", ColumnSemester, v, v)
	}
	return n, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > uint64(math.MaxInt) {
			return 0, false
		}
		return int(n), true
	case float64:
		// float64(math.MinInt) is exact; its negation is one past MaxInt.
		if math.IsNaN(n) || n != math.Trunc(n) || n < float64(math.MinInt) || n >= -float64(math.MinInt) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < math.MinInt || i > math.MaxInt {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// ModuleSummary is a FlatModuleRecord with the aggregation-only columns
// removed. It serialises as a JSON object with keys in column order.
type ModuleSummary []Column

// Get returns the value of the named column.
func (m ModuleSummary) Get(name string) (any, bool) {
	return FlatModuleRecord(m).Get(name)
}

// Has reports whether the summary carries the named column.
func (m ModuleSummary) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// MarshalJSON encodes the summary as an object, preserving column order.
func (m ModuleSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clean strips the semester, name and study_programme columns from a
// record. The input is not modified.
// This is a PURE function.
func Clean(r FlatModuleRecord) ModuleSummary {
	out := make(ModuleSummary, 0, len(r))
	for _, c := range r {
		switch c.Name {
		case ColumnSemester, ColumnName, ColumnStudyProgramme:
			continue
		}
		out = append(out, c)
	}
	return out
}
