package pipeline

import (
	"context"
	"fmt"
)

// A Role represents the different kinds of stages.
type Role int

const (
	// SourceRole stages turn the input sequence into a tagged message
	// stream.
	SourceRole Role = iota

	// MergerRole stages merge pairs of runs and forward the result
	// re-tagged for the next stage.
	MergerRole

	// SinkRole stages merge pairs of runs and emit the result.
	SinkRole
)

func (role Role) String() string {
	switch role {
	case SourceRole:
		return "source"
	case MergerRole:
		return "merger"
	case SinkRole:
		return "sink"
	default:
		return fmt.Sprintf("Role(%d)", int(role))
	}
}

// RoleOf derives the role of the stage at position rank in a pipeline
// of the given size.
func RoleOf(rank, size int) Role {
	switch {
	case rank < 0 || rank >= size:
		panic(fmt.Sprintf("invalid rank %v in a pipeline of size %v", rank, size))
	case rank == 0:
		return SourceRole
	case rank == size-1:
		return SinkRole
	default:
		return MergerRole
	}
}

/*
A Stage is one sequential process in a pipeline.

Run is called exactly once, in its own goroutine, with the total
number of elements the source will emit. It returns once the stage
has forwarded or emitted every element it will ever receive, or with
an error when the pipeline fails elsewhere.
*/
type Stage interface {
	Run(ctx context.Context, total int) error
}

// ClusterSize is the length of the sorted runs that arrive on each of
// the two queues of the stage at position rank.
func ClusterSize(rank int) int {
	if rank < 1 || rank >= MaxDepth {
		panic(fmt.Sprintf("invalid merging rank: %v", rank))
	}
	return 1 << (rank - 1)
}

// RetagPeriod is the number of consecutive messages that the stage at
// position rank sends with the same tag.
func RetagPeriod(rank int) int {
	return 2 * ClusterSize(rank)
}

// MaxDepth is the largest number of stages a pipeline can have. The
// run length of the sink at that depth still fits in an int.
const MaxDepth = 64

// Compatible reports whether a pipeline of the given depth emits a
// single sorted run for n elements.
func Compatible(n, depth int) bool {
	switch {
	case depth < 2 || depth > MaxDepth:
		return false
	case depth-1 >= 62:
		return true
	default:
		return n <= 1<<(depth-1)
	}
}
