package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// Execute runs req against schema.
func Execute(ctx context.Context, schema graphql.Schema, req GraphQLRequest) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
