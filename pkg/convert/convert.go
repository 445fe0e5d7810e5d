// Package convert turns positional pipeline rows into vertices and edges.
//
// A converter error means the row is dropped: callers count it and move on.
package convert

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
)

var (
	ErrShortRow    = errors.New("row has fewer columns than configured positions")
	ErrMissingID   = errors.New("row has no id")
	ErrInvalidID   = errors.New("id is not valid for the vid type")
	ErrFieldType   = errors.New("field value does not match schema type")
	ErrInvalidRank = errors.New("rank is not an integer")
)

// Reason maps a conversion error onto a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrShortRow):
		return "short_row"
	case errors.Is(err, ErrMissingID):
		return "missing_id"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrFieldType):
		return "field_type"
	case errors.Is(err, ErrInvalidRank):
		return "invalid_rank"
	default:
		return "other"
	}
}

// VertexConverter converts rows into vertices of one tag.
type VertexConverter struct {
	opts options.Vertex
}

func NewVertexConverter(opts options.Vertex) *VertexConverter {
	return &VertexConverter{opts: opts}
}

// Convert extracts the id and configured properties from row.
func (c *VertexConverter) Convert(row graph.Row) (graph.Vertex, error) {
	vid, err := vertexID(row, c.opts.IDIndex, c.opts.VidType, c.opts.Policy)
	if err != nil {
		return graph.Vertex{}, err
	}
	props, err := properties(row, &c.opts.Execution)
	if err != nil {
		return graph.Vertex{}, err
	}
	return graph.Vertex{VID: vid, Props: props}, nil
}

// EdgeConverter converts rows into edges of one edge type.
type EdgeConverter struct {
	opts options.Edge
}

func NewEdgeConverter(opts options.Edge) *EdgeConverter {
	return &EdgeConverter{opts: opts}
}

// Convert extracts source, destination, optional rank and properties from row.
func (c *EdgeConverter) Convert(row graph.Row) (graph.Edge, error) {
	src, err := vertexID(row, c.opts.SrcIndex, c.opts.VidType, c.opts.Policy)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("source: %w", err)
	}
	dst, err := vertexID(row, c.opts.DstIndex, c.opts.VidType, c.opts.Policy)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("destination: %w", err)
	}

	var rank int64
	if c.opts.RankIndex != options.NoRank {
		raw, ok := row.Field(c.opts.RankIndex)
		if !ok {
			return graph.Edge{}, ErrShortRow
		}
		if raw != nil {
			rank, err = graph.ToInt64(raw)
			if err != nil {
				return graph.Edge{}, fmt.Errorf("%w: %v", ErrInvalidRank, err)
			}
		}
	}

	props, err := properties(row, &c.opts.Execution)
	if err != nil {
		return graph.Edge{}, err
	}
	return graph.Edge{Src: src, Dst: dst, Rank: rank, Props: props}, nil
}

// vertexID reads an id column. Without a policy an int vid type needs an
// integer id; with hash or uuid the raw text is wrapped at render time.
func vertexID(row graph.Row, pos int, vidType graph.VidType, policy graph.Policy) (string, error) {
	raw, ok := row.Field(pos)
	if !ok {
		return "", ErrShortRow
	}
	if raw == nil {
		return "", ErrMissingID
	}

	id := graph.IDString(raw)
	if id == "" {
		return "", ErrMissingID
	}

	if vidType == graph.VidInt && policy == graph.PolicyNone {
		n, err := graph.ToInt64(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
		}
		return fmt.Sprint(n), nil
	}
	return id, nil
}

func properties(row graph.Row, opts *options.Execution) ([]graph.Value, error) {
	if len(opts.Fields) == 0 {
		return nil, nil
	}

	props := make([]graph.Value, len(opts.Fields))
	for i, pos := range opts.Positions {
		raw, ok := row.Field(pos)
		if !ok {
			return nil, ErrShortRow
		}
		v, err := graph.NormalizeValue(opts.FieldType(i), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrFieldType, opts.Fields[i], err)
		}
		props[i] = v
	}
	return props, nil
}
