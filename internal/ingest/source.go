package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/courtstats/internal/schema"
	"github.com/albapepper/courtstats/internal/storage"
)

// csvSource adapts a CSV stream to storage.RowSource. Columns are matched
// to the table by sanitized header name, so the file may list them in any
// order; each row is emitted in the table's catalog order.
type csvSource struct {
	cr      *csv.Reader
	headers []string // sanitized

	cols    []storage.Column
	index   []int // table column -> record field
	current []any
	line    int
	err     error
}

func newCSVSource(r io.Reader) (*csvSource, error) {
	cr := schema.NewReader(r)
	raw, err := schema.ReadHeader(cr)
	if err != nil {
		return nil, err
	}
	return &csvSource{cr: cr, headers: schema.ColumnNames(raw), line: 1}, nil
}

// Bind maps the file header onto cols. Every table column must appear in the
// header and every header column must exist in the table.
func (s *csvSource) Bind(cols []storage.Column) error {
	pos := make(map[string]int, len(s.headers))
	for i, h := range s.headers {
		pos[strings.ToLower(h)] = i
	}

	var missing []string
	index := make([]int, len(cols))
	for i, c := range cols {
		j, ok := pos[strings.ToLower(c.Name)]
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		index[i] = j
		delete(pos, strings.ToLower(c.Name))
	}

	if len(missing) > 0 || len(pos) > 0 {
		extra := make([]string, 0, len(pos))
		for name := range pos {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		return fmt.Errorf("%w: missing from file %v, not in table %v", ErrHeaderMismatch, missing, extra)
	}

	s.cols = cols
	s.index = index
	s.current = make([]any, len(cols))
	return nil
}

func (s *csvSource) Next() bool {
	if s.err != nil {
		return false
	}
	rec, err := s.cr.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	s.line++
	if err != nil {
		s.err = fmt.Errorf("line %d: %w", s.line, err)
		return false
	}
	if len(rec) != len(s.headers) {
		s.err = fmt.Errorf("line %d: %w: got %d fields, header has %d",
			s.line, ErrMalformedRow, len(rec), len(s.headers))
		return false
	}

	for i, c := range s.cols {
		v, err := convert(strings.TrimSpace(rec[s.index[i]]), c.Kind)
		if err != nil {
			s.err = fmt.Errorf("line %d, column %s: %w", s.line, c.Name, err)
			return false
		}
		s.current[i] = v
	}
	return true
}

func (s *csvSource) Values() ([]any, error) { return s.current, nil }

func (s *csvSource) Err() error { return s.err }

// convert parses raw for a column of kind k. The missing-value token is NULL;
// so is an empty numeric cell.
func convert(raw string, k storage.ColumnKind) (any, error) {
	if raw == schema.MissingValue {
		return nil, nil
	}
	switch k {
	case storage.KindInteger:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrMalformedRow, raw)
		}
		return n, nil
	case storage.KindFloat:
		if raw == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrMalformedRow, raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}
