package partition

import (
	"hash/fnv"
	"sync/atomic"

	"github.com/dd0wney/cluso-graphsink/pkg/graph"
)

// PartitionStrategy decides which subtask receives a row
type PartitionStrategy interface {
	GetPartition(row graph.Row) int
	GetPartitionCount() int
}

// HashPartition routes rows by the hash of one key column, so every record
// for the same entity lands on the same subtask.
type HashPartition struct {
	partitionCount int
	keyColumn      int
}

// NewHashPartition creates a hash-based partitioning strategy
func NewHashPartition(partitionCount, keyColumn int) *HashPartition {
	if partitionCount < 1 {
		partitionCount = 1
	}
	return &HashPartition{
		partitionCount: partitionCount,
		keyColumn:      keyColumn,
	}
}

// GetPartition returns which partition a row belongs to. Rows missing the
// key column go to partition 0.
func (hp *HashPartition) GetPartition(row graph.Row) int {
	raw, ok := row.Field(hp.keyColumn)
	if !ok || raw == nil {
		return 0
	}
	return hp.PartitionOf(graph.IDString(raw))
}

// PartitionOf hashes a rendered key.
func (hp *HashPartition) PartitionOf(key string) int {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int(h.Sum64() % uint64(hp.partitionCount))
}

// GetPartitionCount returns total number of partitions
func (hp *HashPartition) GetPartitionCount() int {
	return hp.partitionCount
}

// RoundRobinPartition spreads rows evenly without regard to their content
type RoundRobinPartition struct {
	partitionCount int
	next           atomic.Uint64
}

// NewRoundRobinPartition creates round-robin partitioning
func NewRoundRobinPartition(partitionCount int) *RoundRobinPartition {
	if partitionCount < 1 {
		partitionCount = 1
	}
	return &RoundRobinPartition{partitionCount: partitionCount}
}

// GetPartition returns the next partition in turn
func (rp *RoundRobinPartition) GetPartition(graph.Row) int {
	n := rp.next.Add(1) - 1
	return int(n % uint64(rp.partitionCount))
}

// GetPartitionCount returns total partitions
func (rp *RoundRobinPartition) GetPartitionCount() int {
	return rp.partitionCount
}

// LoadBalance scores per-partition row counts from 0 to 1 (1 = perfect balance)
func LoadBalance(sizes []int) float64 {
	if len(sizes) == 0 {
		return 1
	}
	total := 0
	for _, size := range sizes {
		total += size
	}
	if total == 0 {
		return 1
	}

	avgSize := float64(total) / float64(len(sizes))
	variance := 0.0
	for _, size := range sizes {
		diff := float64(size) - avgSize
		variance += diff * diff
	}
	variance /= float64(len(sizes))
	return 1.0 / (1.0 + variance/avgSize)
}
