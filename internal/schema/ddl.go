package schema

import (
	"fmt"
	"strings"
)

// CreateTableSQL renders an idempotent CREATE TABLE for t. The output depends
// only on t, so the same descriptor always yields the same statement.
func CreateTableSQL(t Table) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("create table: empty table name")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("create table %s: no columns", t.Name)
	}

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("create table %s: column %d has no name", t.Name, i+1)
		}
		defs[i] = c.Name + " " + c.Type.SQL()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", t.Name, strings.Join(defs, ", ")), nil
}
