package partition

import (
	"fmt"
	"testing"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

func TestNewHashPartition(t *testing.T) {
	tests := []struct {
		name           string
		partitionCount int
		want           int
	}{
		{"single partition", 1, 1},
		{"four partitions", 4, 4},
		{"zero clamps to one", 0, 1},
		{"negative clamps to one", -3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := NewHashPartition(tt.partitionCount, 0)
			if hp.GetPartitionCount() != tt.want {
				t.Errorf("GetPartitionCount() = %d, want %d", hp.GetPartitionCount(), tt.want)
			}
		})
	}
}

func TestHashPartition_SameKeySamePartition(t *testing.T) {
	hp := NewHashPartition(8, 1)

	first := hp.GetPartition(graph.Row{"x", "player100", 42})
	for i := 0; i < 10; i++ {
		if got := hp.GetPartition(graph.Row{i, "player100", i}); got != first {
			t.Fatalf("GetPartition() = %d, want %d for the same key", got, first)
		}
	}
}

func TestHashPartition_IntAndStringKeysAgree(t *testing.T) {
	hp := NewHashPartition(16, 0)
	if hp.GetPartition(graph.Row{int64(7)}) != hp.GetPartition(graph.Row{"7"}) {
		t.Error("int and string forms of the same id should route together")
	}
}

func TestHashPartition_MissingKey(t *testing.T) {
	hp := NewHashPartition(4, 5)
	if got := hp.GetPartition(graph.Row{"a"}); got != 0 {
		t.Errorf("short row partition = %d, want 0", got)
	}
	hp = NewHashPartition(4, 0)
	if got := hp.GetPartition(graph.Row{nil}); got != 0 {
		t.Errorf("nil key partition = %d, want 0", got)
	}
}

func TestHashPartition_Range(t *testing.T) {
	hp := NewHashPartition(4, 0)
	sizes := make([]int, 4)
	for i := 0; i < 1000; i++ {
		p := hp.GetPartition(graph.Row{fmt.Sprintf("vid-%d", i)})
		if p < 0 || p >= 4 {
			t.Fatalf("partition %d out of range", p)
		}
		sizes[p]++
	}
	if lb := LoadBalance(sizes); lb < 0.1 {
		t.Errorf("LoadBalance() = %f for sizes %v, expected a reasonable spread", lb, sizes)
	}
}

func TestRoundRobinPartition(t *testing.T) {
	rp := NewRoundRobinPartition(3)
	want := []int{0, 1, 2, 0, 1, 2}
	for i, w := range want {
		if got := rp.GetPartition(nil); got != w {
			t.Errorf("call %d: GetPartition() = %d, want %d", i, got, w)
		}
	}
}

func TestLoadBalance(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		want  float64
	}{
		{"empty", nil, 1},
		{"all zero", []int{0, 0}, 1},
		{"perfect", []int{5, 5, 5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoadBalance(tt.sizes); got != tt.want {
				t.Errorf("LoadBalance(%v) = %f, want %f", tt.sizes, got, tt.want)
			}
		})
	}

	if skewed := LoadBalance([]int{100, 0, 0, 0}); skewed >= 0.5 {
		t.Errorf("skewed LoadBalance = %f, want < 0.5", skewed)
	}
}
