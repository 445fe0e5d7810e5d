package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

// TestBufferingInvariants checks how the buffer size relates to executions
// for arbitrary thresholds and record counts.
func TestBufferingInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("fewer records than the threshold never execute", prop.ForAll(
		func(threshold, n int) bool {
			n %= threshold
			s := &fakeSession{}
			b := mustOpen(threshold, s)
			for i := 0; i < n; i++ {
				if err := b.AddToBatch(context.Background(), graph.Row{fmt.Sprint(i), "x"}); err != nil {
					return false
				}
			}
			return b.Len() == n && len(s.statements) == 0
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 1000),
	))

	properties.Property("every full batch executes exactly once", prop.ForAll(
		func(threshold, n int) bool {
			s := &fakeSession{}
			b := mustOpen(threshold, s)
			for i := 0; i < n; i++ {
				if err := b.AddToBatch(context.Background(), graph.Row{fmt.Sprint(i), "x"}); err != nil {
					return false
				}
			}
			return len(s.statements) == n/threshold && b.Len() == n%threshold
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 200),
	))

	properties.Property("flush always empties the buffer", prop.ForAll(
		func(n int, fail bool) bool {
			s := &fakeSession{}
			if fail {
				s.result = &Result{ErrorCode: -1}
			}
			b := mustOpen(1000, s)
			for i := 0; i < n; i++ {
				_ = b.AddToBatch(context.Background(), graph.Row{fmt.Sprint(i), "x"})
			}
			err := b.Flush(context.Background())
			if n == 0 {
				return err == nil && len(s.statements) == 0
			}
			return b.Len() == 0 && len(s.statements) == 1 && (err != nil) == fail
		},
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func mustOpen(threshold int, s *fakeSession) *BatchExecutor[graph.Vertex] {
	b, err := NewVertexExecutor(playerOptions(threshold), factoryFor(s))
	if err != nil {
		panic(err)
	}
	if err := b.Open(context.Background(), 0, 1); err != nil {
		panic(err)
	}
	return b
}
