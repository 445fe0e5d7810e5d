// Package statement renders a batch of entities into one write statement.
//
// Renderers live in lookup tables keyed by dialect and write mode; adding a
// dialect means adding table entries, not new executor types.
package statement

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
	"github.com/dd0wney/cluso-graphsink/pkg/options"
)

var (
	ErrUnsupportedWriteMode = errors.New("write mode is not supported")
	ErrEmptyBatch           = errors.New("cannot render an empty batch")
)

// Target is the rendering-relevant subset of the execution options.
type Target struct {
	Label   string
	Fields  []string
	Policy  graph.Policy
	VidType graph.VidType
}

// TargetOf extracts the rendering target from execution options.
func TargetOf(opts options.Execution) Target {
	return Target{
		Label:   opts.Label,
		Fields:  opts.Fields,
		Policy:  opts.Policy,
		VidType: opts.VidType,
	}
}

type renderKey struct {
	dialect options.Dialect
	mode    graph.WriteMode
}

type vertexRenderer func(t Target, batch []graph.Vertex) string

type edgeRenderer func(t Target, batch []graph.Edge) string

var vertexRenderers = map[renderKey]vertexRenderer{
	{options.DialectNGQL, graph.WriteModeInsert}:   ngqlInsertVertices,
	{options.DialectNGQL, graph.WriteModeUpdate}:   ngqlUpdateVertices,
	{options.DialectNGQL, graph.WriteModeDelete}:   ngqlDeleteVertices,
	{options.DialectCypher, graph.WriteModeInsert}: cypherInsertVertices,
	{options.DialectCypher, graph.WriteModeUpdate}: cypherUpdateVertices,
	{options.DialectCypher, graph.WriteModeDelete}: cypherDeleteVertices,
}

var edgeRenderers = map[renderKey]edgeRenderer{
	{options.DialectNGQL, graph.WriteModeInsert}:   ngqlInsertEdges,
	{options.DialectNGQL, graph.WriteModeUpdate}:   ngqlUpdateEdges,
	{options.DialectNGQL, graph.WriteModeDelete}:   ngqlDeleteEdges,
	{options.DialectCypher, graph.WriteModeInsert}: cypherInsertEdges,
	{options.DialectCypher, graph.WriteModeUpdate}: cypherUpdateEdges,
	{options.DialectCypher, graph.WriteModeDelete}: cypherDeleteEdges,
}

// Vertices renders batch as a single statement for the given dialect and mode.
func Vertices(dialect options.Dialect, mode graph.WriteMode, t Target, batch []graph.Vertex) (string, error) {
	render, ok := vertexRenderers[renderKey{dialect, mode}]
	if !ok {
		return "", unsupported(dialect, mode)
	}
	if len(batch) == 0 {
		return "", ErrEmptyBatch
	}
	return render(t, batch), nil
}

// Edges renders batch as a single statement for the given dialect and mode.
func Edges(dialect options.Dialect, mode graph.WriteMode, t Target, batch []graph.Edge) (string, error) {
	render, ok := edgeRenderers[renderKey{dialect, mode}]
	if !ok {
		return "", unsupported(dialect, mode)
	}
	if len(batch) == 0 {
		return "", ErrEmptyBatch
	}
	return render(t, batch), nil
}

// Supports reports whether a renderer exists for dialect and mode. The
// executor constructors use it to refuse options that could never render.
func Supports(dialect options.Dialect, mode graph.WriteMode) bool {
	_, ok := vertexRenderers[renderKey{dialect, mode}]
	return ok
}

func unsupported(dialect options.Dialect, mode graph.WriteMode) error {
	return fmt.Errorf("%w: %s (dialect %s)", ErrUnsupportedWriteMode, mode, dialect)
}
