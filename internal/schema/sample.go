package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// NewReader returns a CSV reader configured the way every input file is read:
// comma-delimited, ragged rows allowed, lazy quotes tolerated.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ','
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// ReadHeader reads and trims the header row. A UTF-8 BOM on the first field
// is dropped.
func ReadHeader(cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", ErrEmptySample)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return TrimFields(header), nil
}

// ReadSample reads the header plus up to n data rows. Blank lines are
// skipped by the CSV reader. No data rows yields ErrEmptySample.
func ReadSample(r io.Reader, n int) ([]string, [][]string, error) {
	if n < 1 {
		n = 1
	}
	cr := NewReader(r)

	header, err := ReadHeader(cr)
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]string, 0, n)
	for len(rows) < n {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read sample row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, TrimFields(rec))
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptySample
	}
	return header, rows, nil
}

// TrimFields trims surrounding whitespace from every field in place.
func TrimFields(rec []string) []string {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec
}

// TableNameFromPath derives a table name from a file name: the base name
// without extension, sanitized.
func TableNameFromPath(path string) string {
	base := filepath.Base(path)
	return SanitizeIdentifier(strings.TrimSuffix(base, filepath.Ext(base)))
}
