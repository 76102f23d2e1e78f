package pipeline

import (
	"context"

	"github.com/convox/logger"
	"golang.org/x/exp/constraints"
)

// An Emitter receives the final sorted sequence from a Sink, one value
// at a time, in the order decided by the merge.
type Emitter[E constraints.Ordered] interface {
	Emit(value E) error
}

// EmitterFunc adapts an ordinary function to the Emitter interface.
type EmitterFunc[E constraints.Ordered] func(value E) error

// Emit implements the method of the Emitter interface.
func (f EmitterFunc[E]) Emit(value E) error {
	return f(value)
}

// Collect returns an emitter that appends every value to result.
func Collect[E constraints.Ordered](result *[]E) Emitter[E] {
	return EmitterFunc[E](func(value E) error {
		*result = append(*result, value)
		return nil
	})
}

/*
A Sink is the last stage of a pipeline. It runs the same merge as a
Merger, but passes each element to its emitter as soon as it is
decided instead of sending it downstream.
*/
type Sink[E constraints.Ordered] struct {
	rank    int
	in      *Link[E]
	emitter Emitter[E]
	log     *logger.Logger
}

// NewSink creates the sink at position rank, receiving from in.
func NewSink[E constraints.Ordered](rank int, in *Link[E], emitter Emitter[E], log *logger.Logger) *Sink[E] {
	return &Sink[E]{rank: rank, in: in, emitter: emitter, log: log}
}

// Run implements the method of the Stage interface.
func (sink *Sink[E]) Run(ctx context.Context, total int) error {
	return merge(ctx, sink.log, sink.in, newMergeState[E](sink.rank, total), sink.emitter.Emit)
}
