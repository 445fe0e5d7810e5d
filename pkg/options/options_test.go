package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

func playerOptions() Vertex {
	return Vertex{
		Execution: Execution{
			Label:     "player",
			Fields:    []string{"name", "age"},
			Positions: []int{1, 2},
			Schema:    map[string]graph.DataType{"age": graph.TypeInt},
			BatchSize: 3,
		},
		IDIndex: 0,
	}
}

func TestVertexValidate(t *testing.T) {
	opts := playerOptions()
	require.NoError(t, opts.Validate())

	assert.Equal(t, graph.TypeString, opts.FieldType(0))
	assert.Equal(t, graph.TypeInt, opts.FieldType(1))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Vertex)
		want   string
	}{
		{"bad label", func(o *Vertex) { o.Label = "play er" }, "options.label"},
		{"zero batch", func(o *Vertex) { o.BatchSize = 0 }, "options.batch_size"},
		{"huge batch", func(o *Vertex) { o.BatchSize = MaxBatchSize + 1 }, "exceeds maximum"},
		{"negative interval", func(o *Vertex) { o.BatchInterval = -time.Second }, "options.batch_interval"},
		{"position count", func(o *Vertex) { o.Positions = []int{1} }, "2 fields but 1 positions"},
		{"bad field", func(o *Vertex) { o.Fields[0] = "na-me" }, "options.fields[0]"},
		{"negative id", func(o *Vertex) { o.IDIndex = -1 }, "id index"},
		{"update without fields", func(o *Vertex) {
			o.WriteMode = graph.WriteModeUpdate
			o.Fields, o.Positions = nil, nil
		}, "update requires"},
		{"unknown write mode", func(o *Vertex) { o.WriteMode = graph.WriteMode(9) }, "WriteMode(9)"},
		{"hash on string vid", func(o *Vertex) { o.Policy = graph.PolicyHash }, "hash policy requires int vid type"},
		{"bad space", func(o *Vertex) { o.Space = "1space" }, "options.space"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := playerOptions()
			opts.Fields = append([]string(nil), opts.Fields...)
			tt.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHashPolicyAllowedForCypher(t *testing.T) {
	opts := playerOptions()
	opts.Policy = graph.PolicyHash
	opts.Dialect = DialectCypher
	assert.NoError(t, opts.Validate())
}

func TestEdgeValidate(t *testing.T) {
	opts := Edge{
		Execution: Execution{Label: "follow", Fields: []string{"degree"}, Positions: []int{2}, BatchSize: 10},
		SrcIndex:  0,
		DstIndex:  1,
		RankIndex: NoRank,
	}
	require.NoError(t, opts.Validate())

	opts.RankIndex = -3
	assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)

	opts.RankIndex = NoRank
	opts.SrcIndex = -1
	assert.ErrorContains(t, opts.Validate(), "options.src_index")
}

func TestParseDialectAndDefaults(t *testing.T) {
	d, err := ParseDialect("age")
	require.NoError(t, err)
	assert.Equal(t, DialectCypher, d)

	_, err = ParseDialect("gremlin")
	assert.ErrorIs(t, err, ErrInvalidOptions)

	assert.Equal(t, DefaultBatchSize, Execution{}.WithDefaults().BatchSize)
	assert.Equal(t, 5, Execution{BatchSize: 5}.WithDefaults().BatchSize)
}

func TestReservedFieldPrefix(t *testing.T) {
	opts := playerOptions()
	opts.Fields = []string{"__id", "age"}
	assert.ErrorContains(t, opts.Validate(), "reserved __ prefix")
}
