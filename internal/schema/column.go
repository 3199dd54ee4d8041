// Package schema is the explicit registry of tables, keys and relations
// that make up the game's persistent layout.  The registry is built once
// per process and renders dialect-specific DDL for MySQL (production)
// and SQLite (development and tests).
package schema

import "fmt"

// Kind enumerates the column types used by the schema.
type Kind int

const (
	KindVarchar Kind = iota
	KindInt
	KindDouble
	KindBoolean
	KindTimestamp
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindVarchar:
		return "varchar"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	case KindEnum:
		return "enum"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Action is the referential action applied on parent delete.
type Action string

const Cascade Action = "CASCADE"

// ForeignKey points a column at a key column of another table.
type ForeignKey struct {
	Table    string
	Column   string
	OnDelete Action
}

// ColumnDefault describes a column default.  Exactly one of Now or Value
// is set.
type ColumnDefault struct {
	Now   bool // current time with the column's precision
	Value any  // string, int, float64 or bool
}

// Column is one column declaration.
type Column struct {
	Name          string
	Kind          Kind
	Length        int      // varchar length
	Precision     int      // fractional seconds for timestamps
	Values        []string // enum members, in declaration order
	NotNull       bool
	AutoIncrement bool
	Default       *ColumnDefault
	ASCII         bool // MySQL: store as CHARACTER SET ascii
	References    *ForeignKey
}

func varchar(name string, length int) Column {
	return Column{Name: name, Kind: KindVarchar, Length: length}
}

// uuidKey is a 36-character uuid key stored in a varchar(255).  The ascii
// charset keeps composite keys of several ids under the InnoDB key limit.
func uuidKey(name string) Column {
	c := varchar(name, 255)
	c.ASCII = true
	return c
}

func integer(name string) Column { return Column{Name: name, Kind: KindInt} }

func double(name string) Column { return Column{Name: name, Kind: KindDouble} }

func boolean(name string) Column { return Column{Name: name, Kind: KindBoolean} }

func timestamp(name string, fsp int) Column {
	return Column{Name: name, Kind: KindTimestamp, Precision: fsp}
}

func enum(name string, values ...string) Column {
	return Column{Name: name, Kind: KindEnum, Values: values}
}

func (c Column) notNull() Column { c.NotNull = true; return c }

func (c Column) autoIncrement() Column { c.AutoIncrement = true; return c }

func (c Column) defaultTo(v any) Column { c.Default = &ColumnDefault{Value: v}; return c }

func (c Column) defaultNow() Column { c.Default = &ColumnDefault{Now: true}; return c }

func (c Column) references(table, column string) Column {
	c.References = &ForeignKey{Table: table, Column: column, OnDelete: Cascade}
	return c
}

// sameType reports whether a foreign key column is type compatible with
// the key it references.
func sameType(a, b Column) bool {
	if a.Kind != b.Kind {
		return false
	}
	return a.Kind != KindVarchar || (a.Length == b.Length && a.ASCII == b.ASCII)
}

// enumWidth is the width of the longest enum member.
func (c Column) enumWidth() int {
	w := 0
	for _, v := range c.Values {
		if len(v) > w {
			w = len(v)
		}
	}
	return w
}

// maxKeyBytes is the InnoDB limit on the width of one index.
const maxKeyBytes = 3072

// keyBytes is the width c contributes to a MySQL index.  Text columns
// count four bytes per character under utf8mb4.
func (c Column) keyBytes() int {
	switch c.Kind {
	case KindVarchar:
		if c.ASCII {
			return c.Length
		}
		return 4 * c.Length
	case KindInt:
		return 4
	case KindDouble:
		return 8
	case KindBoolean:
		return 1
	case KindTimestamp:
		return 4 + (c.Precision+1)/2
	case KindEnum:
		return 2
	}
	return 0
}
