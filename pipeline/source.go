package pipeline

import (
	"context"

	"github.com/convox/logger"
	"golang.org/x/exp/constraints"
)

/*
A Source is the first stage of a pipeline. It sends every element of
its input sequence to the first merging stage, in sequence order,
alternating the tag after every single element, starting with Tag0.

Runs of length one are trivially sorted, so the stream a Source
produces already satisfies what the stage at position 1 expects.
*/
type Source[E constraints.Ordered] struct {
	input []E
	out   *Link[E]
	log   *logger.Logger
}

// NewSource creates a source that sends input to out.
func NewSource[E constraints.Ordered](input []E, out *Link[E], log *logger.Logger) *Source[E] {
	return &Source[E]{input: input, out: out, log: log}
}

// Run implements the method of the Stage interface. The total is
// implied by the input and is not consulted.
func (src *Source[E]) Run(ctx context.Context, _ int) error {
	log := orDiscard(src.log).Start()
	tag := Tag0
	for _, value := range src.input {
		if err := src.out.Send(ctx, Message[E]{Value: value, Tag: tag}); err != nil {
			return log.Error(err)
		}
		tag = tag.Flip()
	}
	log.Successf("sent=%d", len(src.input))
	return nil
}
