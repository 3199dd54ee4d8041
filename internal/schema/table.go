package schema

// Table is a table declaration: ordered columns, primary key and
// additional unique keys.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Unique     [][]string
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the column names in declaration order.
func (t *Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// ForeignKeys returns the columns of t that reference another table.
func (t *Table) ForeignKeys() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.References != nil {
			out = append(out, c)
		}
	}
	return out
}

// IsKey reports whether cols is exactly the primary key or one of the
// unique keys of t.
func (t *Table) IsKey(cols ...string) bool {
	if equalCols(t.PrimaryKey, cols) {
		return true
	}
	for _, u := range t.Unique {
		if equalCols(u, cols) {
			return true
		}
	}
	return false
}

// KeyBytes is the MySQL index width of cols.
func (t *Table) KeyBytes(cols ...string) int {
	n := 0
	for _, name := range cols {
		if c, ok := t.Column(name); ok {
			n += c.keyBytes()
		}
	}
	return n
}

// CompositeKey reports whether the primary key spans several columns.
func (t *Table) CompositeKey() bool { return len(t.PrimaryKey) > 1 }

func equalCols(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RelationKind distinguishes to-one from to-many relations.
type RelationKind int

const (
	One RelationKind = iota
	Many
)

// Relation is a navigable edge of the relation graph.  To-one relations
// name the local Fields and the References they point at; to-many
// relations name the join table they go Through.
type Relation struct {
	Name       string
	Kind       RelationKind
	Target     string
	Through    string
	Fields     []string
	References []string
}
