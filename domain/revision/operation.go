package revision

import "fmt"

// OpKind identifies the shape of a write operation.
type OpKind int

const (
	// UpdateScalarRow overwrites the module's own row.
	UpdateScalarRow OpKind = iota + 1
	// DeleteChildRows removes every row of a child table owned by the module.
	DeleteChildRows
	// InsertChildRow adds one row to a child table.
	InsertChildRow
)

var opKindNames = map[OpKind]string{
	UpdateScalarRow: "update",
	DeleteChildRows: "delete",
	InsertChildRow:  "insert",
}

func (k OpKind) String() string {
	if s, ok := opKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k OpKind) MarshalText() ([]byte, error) {
	s, ok := opKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown operation kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a kind name.
func (k *OpKind) UnmarshalText(b []byte) error {
	for kind, name := range opKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", b)
}

// Field is one column assignment of an update or insert.
type Field struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Operation is one abstract write against the store. It carries no
// connection; a unit of work translates it to the store's dialect.
// The module id column is implied by ModuleID and never listed in Fields.
type Operation struct {
	Kind     OpKind  `json:"kind"`
	Table    string  `json:"table"`
	ModuleID int64   `json:"moduleId"`
	Fields   []Field `json:"fields,omitempty"`
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %s module=%d fields=%d", o.Kind, o.Table, o.ModuleID, len(o.Fields))
}

// Columns returns the column names of the operation's fields, in order.
func (o Operation) Columns() []string {
	cols := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Values returns the values of the operation's fields, in order.
func (o Operation) Values() []any {
	vals := make([]any, len(o.Fields))
	for i, f := range o.Fields {
		vals[i] = f.Value
	}
	return vals
}

// Plan is an ordered list of operations. Order is significant: it is the
// order a unit of work must apply them in.
type Plan []Operation

// Tables returns the distinct tables touched by the plan, in first-use order.
func (p Plan) Tables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, op := range p {
		if !seen[op.Table] {
			seen[op.Table] = true
			out = append(out, op.Table)
		}
	}
	return out
}

// Block returns the operations of the plan that touch table, in order.
func (p Plan) Block(table string) Plan {
	var out Plan
	for _, op := range p {
		if op.Table == table {
			out = append(out, op)
		}
	}
	return out
}

// Count returns how many operations of kind k the plan holds.
func (p Plan) Count(k OpKind) int {
	n := 0
	for _, op := range p {
		if op.Kind == k {
			n++
		}
	}
	return n
}
