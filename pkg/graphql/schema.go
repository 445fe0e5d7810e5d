package graphql

import (
	"fmt"

	"github.com/dd0wney/cluso-graphsink/pkg/sink"
	"github.com/graphql-go/graphql"
)

// StatusSource lists the current state of every sink subtask.
type StatusSource func() []sink.Status

var sinkType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Sink",
	Fields: graphql.Fields{
		"subtask": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"label":   &graphql.Field{Type: graphql.String},
		"mode":    &graphql.Field{Type: graphql.String},
		"pending": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"failed":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"failure": &graphql.Field{Type: graphql.String},
	},
})

// GenerateSchema builds the read-only status schema:
//
//	sinks(failed: Boolean): [Sink!]!
//	sink(subtask: String!): Sink
//	pending: Int!
func GenerateSchema(source StatusSource) (graphql.Schema, error) {
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"sinks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(sinkType))),
				Args: graphql.FieldConfigArgument{
					"failed": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					statuses := source()
					failed, ok := p.Args["failed"].(bool)
					if !ok {
						return toMaps(statuses), nil
					}
					filtered := statuses[:0:0]
					for _, st := range statuses {
						if st.Failed == failed {
							filtered = append(filtered, st)
						}
					}
					return toMaps(filtered), nil
				},
			},
			"sink": &graphql.Field{
				Type: sinkType,
				Args: graphql.FieldConfigArgument{
					"subtask": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					subtask, _ := p.Args["subtask"].(string)
					for _, st := range source() {
						if st.Subtask == subtask {
							return toMap(st), nil
						}
					}
					return nil, nil
				},
			},
			"pending": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					total := 0
					for _, st := range source() {
						total += st.Pending
					}
					return total, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func toMaps(statuses []sink.Status) []map[string]any {
	out := make([]map[string]any, len(statuses))
	for i, st := range statuses {
		out[i] = toMap(st)
	}
	return out
}

func toMap(st sink.Status) map[string]any {
	m := map[string]any{
		"subtask": st.Subtask,
		"label":   st.Label,
		"mode":    st.Mode,
		"pending": st.Pending,
		"failed":  st.Failed,
	}
	if st.Failure != "" {
		m["failure"] = st.Failure
	}
	return m
}
