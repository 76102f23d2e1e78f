/*
Package pipeline provides a pipelined merge-sort network.

A Pipeline is a strict linear chain of stages connected by
unbuffered links. The stage at position 0 is a Source, the stage at
the last position is a Sink, and every stage in between is a Merger.
Each stage runs in its own goroutine and communicates only with its
immediate neighbours.

Every message carries a one-bit tag that tells the receiving stage
which of its two queues the element belongs to. The stage at position
r expects runs of ClusterSize(r) elements per queue that are already
sorted, merges one run from each queue into a sorted run of twice the
length, and re-tags its output in groups of that length, so that the
next stage can repeat the same step. Data flows through the pipeline
once, while the run length doubles at every stage.

A pipeline of depth d emits a single sorted sequence for up to
2^(d-1) elements. Deeper pipelines, up to MaxDepth stages, pass
already sorted data through.
Shallower pipelines terminate, but emit the data as a sequence of
sorted runs rather than one sorted sequence.

The only piece of global information is the total number of elements,
which is passed to every stage before any of them starts.
*/
package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/convox/logger"
	"github.com/exascience/pms/internal"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDepth is returned when a pipeline has fewer than two stages,
	// or more than MaxDepth.
	ErrDepth = errors.New("pipeline depth out of range")

	// ErrNoSink is returned when a pipeline is run without an emitter.
	ErrNoSink = errors.New("pipeline has no emitter")

	errPanic = errors.New("stage panicked")
)

/*
A Pipeline sorts the elements of its source by streaming them through
a merge-sort network.

The zero Pipeline is valid and empty.

A Pipeline must not be copied after first use.
*/
type Pipeline[E constraints.Ordered] struct {
	mutex   sync.RWMutex
	err     error
	cancel  context.CancelFunc
	input   []E
	emitter Emitter[E]
	depth   int
	log     *logger.Logger
}

func orDiscard(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.NewWriter("ns=pms", io.Discard)
	}
	return log
}

/*
Err sets or gets an error value for this pipeline.

If err is nil, Err returns the current error value for this pipeline.

If err is not nil, Err attempts to set a new error value for this
pipeline, unless it already has a non-nil error value. If the attempt
is successful, err is returned and Err also cancels the pipeline. If
the attempt is not successful, the current error value for this
pipeline is returned instead.
*/
func (p *Pipeline[E]) Err(err error) error {
	if err == nil {
		p.mutex.RLock()
		err := p.err
		p.mutex.RUnlock()
		return err
	}
	p.mutex.Lock()
	if p.err == nil {
		p.err = err
		p.mutex.Unlock()
		if p.cancel != nil {
			p.cancel()
		}
	} else {
		err = p.err
		p.mutex.Unlock()
	}
	return err
}

// Source sets the input sequence for this pipeline. The input is not
// modified.
func (p *Pipeline[E]) Source(input []E) {
	p.input = input
}

// Sink sets the emitter that receives the sorted sequence.
func (p *Pipeline[E]) Sink(emitter Emitter[E]) {
	p.emitter = emitter
}

// Logger sets the logger for this pipeline. Each stage logs to its own
// namespace below it.
func (p *Pipeline[E]) Logger(log *logger.Logger) {
	p.log = log
}

/*
Depth sets or gets the number of stages of this pipeline, including
the source and the sink.

If n is < 1, Depth returns the current depth. If the depth has never
been set, it defaults to the smallest depth that sorts the current
input completely.
*/
func (p *Pipeline[E]) Depth(n int) (depth int) {
	if n < 1 {
		if p.depth < 1 {
			return internal.ComputeDepth(len(p.input))
		}
		return p.depth
	}
	p.depth = n
	return n
}

// stages creates the stages of a pipeline of the given depth and the
// links between them.
func (p *Pipeline[E]) stages(depth int, log *logger.Logger) []Stage {
	links := make([]*Link[E], depth-1)
	for i := range links {
		links[i] = NewLink[E]()
	}
	stages := make([]Stage, depth)
	for rank := range stages {
		role := RoleOf(rank, depth)
		stageLog := log.Namespace("stage=%d role=%s", rank, role)
		switch role {
		case SourceRole:
			stages[rank] = NewSource(p.input, links[rank], stageLog)
		case MergerRole:
			stages[rank] = NewMerger(rank, links[rank-1], links[rank], stageLog)
		case SinkRole:
			stages[rank] = NewSink(rank, links[rank-1], p.emitter, stageLog)
		}
	}
	return stages
}

/*
RunWithContext initiates pipeline execution.

It expects a context and a cancel function as parameters, for example
from context.WithCancel(context.Background()). It does not ensure that
the cancel function is called at least once, so this must be ensured
by the function calling RunWithContext.

RunWithContext determines the total number of elements, passes it to
every stage, and then runs all stages concurrently until the sink has
emitted every element. It returns the first error reported by any
stage. If a stage panics, RunWithContext panics with the recovered
value once all stages have terminated.
*/
func (p *Pipeline[E]) RunWithContext(ctx context.Context, cancel context.CancelFunc) error {
	if err := p.Err(nil); err != nil {
		return err
	}
	p.cancel = cancel
	depth := p.Depth(0)
	if depth < 2 || depth > MaxDepth {
		return p.Err(errors.Wrapf(ErrDepth, "depth %d", depth))
	}
	if p.emitter == nil {
		return p.Err(ErrNoSink)
	}
	total := len(p.input)
	log := orDiscard(p.log)
	if !Compatible(total, depth) {
		log.At("run").Logf("state=warning total=%d depth=%d run=%d", total, depth, 1<<(depth-1))
	}
	stages := p.stages(depth, log)

	var (
		panicOnce sync.Once
		panicked  interface{}
	)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, stage := range stages {
		stage := stage
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
					err = errPanic
				}
			}()
			return stage.Run(groupCtx, total)
		})
	}
	err := group.Wait()
	if panicked != nil {
		panic(internal.WrapPanic(panicked))
	}
	if err != nil {
		return p.Err(err)
	}
	return nil
}

/*
Run initiates pipeline execution by calling
RunWithContext(context.WithCancel(context.Background())), and ensures
that the cancel function is called at least once when the pipeline is
done.
*/
func (p *Pipeline[E]) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return p.RunWithContext(ctx, cancel)
}
