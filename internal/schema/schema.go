// Package schema infers column types from a small sample of untyped rows and
// renders the matching CREATE TABLE statement.
//
// Each column's type comes from the first non-missing value in the sample;
// later rows that disagree are not detected here. SCHEMA_SAMPLE_ROWS widens
// the sample.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MissingValue marks an absent cell in input files. It never takes part in
// inference and loads as NULL.
const MissingValue = "NA"

// ErrEmptySample is returned when the input has a header but no data rows.
var ErrEmptySample = errors.New("sample has no data rows")

// ColumnType is the inferred storage class of a column.
type ColumnType string

const (
	Integer ColumnType = "INTEGER"
	Float   ColumnType = "FLOAT"
	Text    ColumnType = "TEXT"
)

// SQL returns the column type as written in DDL.
func (t ColumnType) SQL() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Float:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// Column is a sanitized column name plus its inferred type.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table describes a table to create. Columns keep the input's order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

var (
	intPattern   = regexp.MustCompile(`^\d+$`)
	floatPattern = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)
	unsafeChars  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// InferType classifies a single sample value. Unsigned digit strings are
// INTEGER, decimal or scientific notation is FLOAT, everything else
// (including the missing-value token) is TEXT.
func InferType(value string) ColumnType {
	switch {
	case value == "" || value == MissingValue:
		return Text
	case intPattern.MatchString(value):
		return Integer
	case floatPattern.MatchString(value):
		return Float
	default:
		return Text
	}
}

// SanitizeIdentifier replaces every character outside [A-Za-z0-9_] with an
// underscore. A leading digit gets an "x" prefix so the result can be used
// unquoted; an empty name stays empty.
func SanitizeIdentifier(name string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "x" + s
	}
	return s
}

// ColumnNames sanitizes headers and makes them unique. Empty names become
// col_N (1-based position); repeats get a _2, _3 ... suffix. Matching is
// case-insensitive because unquoted identifiers are case-insensitive in SQL.
func ColumnNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]struct{}, len(headers))
	for i, h := range headers {
		name := SanitizeIdentifier(h)
		if name == "" {
			name = "col_" + strconv.Itoa(i+1)
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", name, n)
				if _, taken := seen[strings.ToLower(candidate)]; !taken {
					name = candidate
					break
				}
			}
		}
		seen[strings.ToLower(name)] = struct{}{}
		out[i] = name
	}
	return out
}

// Infer builds a table descriptor from headers and sample rows. Each column's
// type comes from its first non-missing value across the sample; a column
// with no usable value is TEXT.
func Infer(table string, headers []string, sample [][]string) (Table, error) {
	if len(headers) == 0 {
		return Table{}, fmt.Errorf("infer %s: no header row", table)
	}
	if len(sample) == 0 {
		return Table{}, fmt.Errorf("infer %s: %w", table, ErrEmptySample)
	}

	name := SanitizeIdentifier(table)
	if name == "" {
		return Table{}, fmt.Errorf("infer: table name %q has no usable characters", table)
	}

	names := ColumnNames(headers)
	cols := make([]Column, len(headers))
	for i := range headers {
		cols[i] = Column{Name: names[i], Type: Text}
		for _, row := range sample {
			if i >= len(row) {
				continue
			}
			if v := row[i]; v != "" && v != MissingValue {
				cols[i].Type = InferType(v)
				break
			}
		}
	}
	return Table{Name: name, Columns: cols}, nil
}
