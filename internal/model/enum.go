package model

import "fmt"

// enumString extracts the textual value a driver hands to Scan for an
// ENUM or TEXT column.  MySQL returns []byte, SQLite returns string.
func enumString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("enum value is NULL")
	default:
		return "", fmt.Errorf("unsupported enum source %T", src)
	}
}
