package storage

import (
	"fmt"
	"strings"
)

// Placeholder renders the i-th (1-based) bind parameter for a backend.
type Placeholder func(i int) string

// Dollar renders Postgres-style $n placeholders.
func Dollar(i int) string { return fmt.Sprintf("$%d", i) }

// Question renders SQLite-style ? placeholders.
func Question(int) string { return "?" }

// InsertSQL builds a single-row INSERT for columns. Identifiers are checked,
// never quoted.
func InsertSQL(table string, columns []string, ph Placeholder) (string, error) {
	if err := CheckIdent(table); err != nil {
		return "", err
	}
	if err := CheckIdents(columns...); err != nil {
		return "", err
	}

	params := make([]string, len(columns))
	for i := range columns {
		params[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(params, ", ")), nil
}

// UpdateSQL builds an UPDATE that rewrites every column in columns for the
// row matching keyColumn. The key value binds last.
func UpdateSQL(table string, columns []string, keyColumn string, ph Placeholder) (string, error) {
	if err := CheckIdents(append([]string{table, keyColumn}, columns...)...); err != nil {
		return "", err
	}

	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = " + ph(i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		table, strings.Join(sets, ", "), keyColumn, ph(len(columns)+1)), nil
}
