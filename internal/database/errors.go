package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry    = 1062
	mysqlRowIsReferenced   = 1451
	mysqlNoReferencedRow   = 1452
	mysqlRowIsReferenced2  = 1217
	mysqlNoReferencedRow2  = 1216
	mysqlCheckConstraint   = 3819
	mysqlTruncatedWrongVal = 1265
)

func mysqlNumber(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

// IsDuplicate reports whether err is a primary key or unique violation.
func IsDuplicate(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlDuplicateEntry
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// IsForeignKey reports whether err is any foreign key violation: a child
// row pointing at a missing parent, or a parent key still in use.
func IsForeignKey(err error) bool {
	if IsReferenced(err) {
		return true
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlNoReferencedRow || n == mysqlNoReferencedRow2
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// IsReferenced reports whether err rejected a change to a parent row
// that child rows still point at.  SQLite reports both directions with
// one code, so only MySQL errors are recognised here.
func IsReferenced(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlRowIsReferenced || n == mysqlRowIsReferenced2
	}
	return false
}

// IsInvalidValue reports whether err is a CHECK or ENUM violation.
func IsInvalidValue(err error) bool {
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlCheckConstraint || n == mysqlTruncatedWrongVal
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.SQLITE_CONSTRAINT_CHECK || code == sqlite3.SQLITE_CONSTRAINT_NOTNULL
	}
	return false
}
