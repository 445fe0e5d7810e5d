package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 << 20

// Source yields rows until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (graph.Row, error)
}

// JSONLSource reads one JSON array per line. Numbers decode as json.Number
// so integer ids survive unchanged. Blank lines are skipped.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource reads rows from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &JSONLSource{scanner: scanner}
}

// Next returns the next row.
func (s *JSONLSource) Next(ctx context.Context) (graph.Row, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++

		data := bytes.TrimSpace(s.scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var row []any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return graph.Row(row), nil
	}
}

// SliceSource yields a fixed set of rows.
type SliceSource struct {
	rows []graph.Row
	pos  int
}

// NewSliceSource returns a source over rows.
func NewSliceSource(rows ...graph.Row) *SliceSource {
	return &SliceSource{rows: rows}
}

// Next returns the next row.
func (s *SliceSource) Next(ctx context.Context) (graph.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
