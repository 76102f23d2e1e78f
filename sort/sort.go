/*
Package sort sorts slices by streaming them through a pipelined
merge-sort network.
*/
package sort

import (
	"github.com/exascience/pms/pipeline"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrTooShallow is returned when a requested depth cannot sort the
// whole slice.
var ErrTooShallow = errors.New("pipeline too shallow for data size")

/*
Sort sorts a in increasing order by running it through a merge-sort
network of the given depth, including the source and the sink. If
depth is 0, the smallest depth that sorts a completely is used.

Sort returns ErrDepth for depths outside 2..MaxDepth of the pipeline
package, and ErrTooShallow for depths that cannot sort a completely.

Equal elements keep no particular identity, so Sort is only useful for
types where equal values are indistinguishable.
*/
func Sort[E constraints.Ordered](a []E, depth int) error {
	var p pipeline.Pipeline[E]
	p.Source(a)
	if depth != 0 {
		if depth < 2 || depth > pipeline.MaxDepth {
			return errors.Wrapf(pipeline.ErrDepth, "depth %d", depth)
		}
		p.Depth(depth)
		if !pipeline.Compatible(len(a), depth) {
			return errors.Wrapf(ErrTooShallow, "%d elements, depth %d", len(a), depth)
		}
	}
	result := make([]E, 0, len(a))
	p.Sink(pipeline.Collect(&result))
	if err := p.Run(); err != nil {
		return err
	}
	copy(a, result)
	return nil
}

// Uint8s sorts a slice of uint8s in increasing order.
func Uint8s(a []uint8) {
	if err := Sort(a, 0); err != nil {
		panic(err)
	}
}

// IsSorted determines whether a is sorted in increasing order.
func IsSorted[E constraints.Ordered](a []E) bool {
	for i := 1; i < len(a); i++ {
		if a[i] < a[i-1] {
			return false
		}
	}
	return true
}

// Uint8sAreSorted determines whether a slice of uint8s is sorted in
// increasing order.
func Uint8sAreSorted(a []uint8) bool {
	return IsSorted(a)
}
