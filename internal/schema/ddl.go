package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour DDL is rendered for.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	}
	return "dialect(" + strconv.Itoa(int(d)) + ")"
}

// ParseDialect accepts "mysql" or "sqlite" (also "sqlite3").
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("unknown dialect %q", s)
}

func quote(ident string) string { return "`" + ident + "`" }

func quoteList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

func literal(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

// inlineRowID reports whether SQLite must declare the primary key inline
// as INTEGER PRIMARY KEY AUTOINCREMENT.
func inlineRowID(t *Table, c Column) bool {
	return c.AutoIncrement && len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == c.Name
}

func columnType(d Dialect, c Column) string {
	switch c.Kind {
	case KindVarchar:
		if d == MySQL && c.ASCII {
			return fmt.Sprintf("VARCHAR(%d) CHARACTER SET ascii", c.Length)
		}
		return fmt.Sprintf("VARCHAR(%d)", c.Length)
	case KindInt:
		if d == SQLite {
			return "INTEGER"
		}
		return "INT"
	case KindDouble:
		if d == SQLite {
			return "REAL"
		}
		return "DOUBLE"
	case KindBoolean:
		return "BOOLEAN"
	case KindTimestamp:
		if d == MySQL && c.Precision > 0 {
			return fmt.Sprintf("TIMESTAMP(%d)", c.Precision)
		}
		return "TIMESTAMP"
	case KindEnum:
		if d == SQLite {
			return fmt.Sprintf("VARCHAR(%d)", c.enumWidth())
		}
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = literal(v)
		}
		return "ENUM(" + strings.Join(vals, ",") + ")"
	}
	return ""
}

func defaultClause(d Dialect, c Column) string {
	def := c.Default
	if def == nil {
		return ""
	}
	if def.Now {
		switch {
		case d == MySQL && c.Precision > 0:
			return fmt.Sprintf("DEFAULT CURRENT_TIMESTAMP(%d)", c.Precision)
		case d == SQLite && c.Precision > 0:
			return "DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))"
		default:
			return "DEFAULT CURRENT_TIMESTAMP"
		}
	}
	switch v := def.Value.(type) {
	case string:
		return "DEFAULT " + literal(v)
	case bool:
		if v {
			return "DEFAULT 1"
		}
		return "DEFAULT 0"
	case int:
		return "DEFAULT " + strconv.Itoa(v)
	case float64:
		return "DEFAULT " + strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprintf("DEFAULT %v", def.Value)
}

func columnDef(d Dialect, t *Table, c Column) string {
	parts := []string{quote(c.Name), columnType(d, c)}
	if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if d == SQLite && inlineRowID(t, c) {
		parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
	} else if d == MySQL && c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if s := defaultClause(d, c); s != "" {
		parts = append(parts, s)
	}
	if d == SQLite && c.Kind == KindEnum {
		vals := make([]string, len(c.Values))
		for i, v := range c.Values {
			vals[i] = literal(v)
		}
		parts = append(parts, fmt.Sprintf("CHECK (%s IN (%s))", quote(c.Name), strings.Join(vals, ",")))
	}
	return strings.Join(parts, " ")
}

// ForeignKeyName follows the <table>_<column>_<parent>_<parentColumn>_fk
// naming of the existing database.
func ForeignKeyName(table string, c Column) string {
	return fmt.Sprintf("%s_%s_%s_%s_fk", table, c.Name, c.References.Table, c.References.Column)
}

// CreateTable renders the CREATE TABLE statement of t.
func CreateTable(d Dialect, t *Table) string {
	var defs []string
	inlinePK := false
	for _, c := range t.Columns {
		defs = append(defs, columnDef(d, t, c))
		if d == SQLite && inlineRowID(t, c) {
			inlinePK = true
		}
	}
	if !inlinePK {
		defs = append(defs, "PRIMARY KEY ("+quoteList(t.PrimaryKey)+")")
	}
	for _, u := range t.Unique {
		name := t.Name + "_" + strings.Join(u, "_") + "_unique"
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", quote(name), quoteList(u)))
	}
	for _, c := range t.ForeignKeys() {
		fk := c.References
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s",
			quote(ForeignKeyName(t.Name, c)), quote(c.Name), quote(fk.Table), quote(fk.Column), fk.OnDelete))
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quote(t.Name))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(defs, ",\n  "))
	b.WriteString("\n)")
	if d == MySQL {
		b.WriteString(" ENGINE=InnoDB")
	}
	return b.String()
}

// CreateStatements renders one CREATE TABLE per table in creation order.
func (r *Registry) CreateStatements(d Dialect) []string {
	out := make([]string, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, CreateTable(d, t))
	}
	return out
}

// DropStatements renders DROP TABLE statements in reverse creation order.
func (r *Registry) DropStatements(d Dialect) []string {
	out := make([]string, 0, len(r.tables))
	for i := len(r.tables) - 1; i >= 0; i-- {
		out = append(out, "DROP TABLE IF EXISTS "+quote(r.tables[i].Name))
	}
	return out
}

// Script joins the CREATE statements into a single SQL script.
func (r *Registry) Script(d Dialect) string {
	return strings.Join(r.CreateStatements(d), ";\n\n") + ";\n"
}

// Apply validates the registry and creates every missing table.  It is
// safe to call on an already migrated database.
func (r *Registry) Apply(ctx context.Context, db *sql.DB, d Dialect) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	for i, stmt := range r.CreateStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", r.tables[i].Name, err)
		}
	}
	return nil
}

// Drop removes every table, children first.
func (r *Registry) Drop(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range r.DropStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop: %w", err)
		}
	}
	return nil
}
