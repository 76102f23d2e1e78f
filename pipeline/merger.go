package pipeline

import (
	"context"

	"github.com/convox/logger"
	"golang.org/x/exp/constraints"
)

/*
mergeState is the private state of a merging stage. It is owned by the
goroutine that runs the stage and is never shared.

Messages tagged Tag0 and Tag1 are queued separately. Each cluster
consists of one run of clusterSize elements from each queue; sent
counts how many elements of the current cluster have been taken from
either queue.
*/
type mergeState[E constraints.Ordered] struct {
	clusterSize int
	total       int
	received    int
	active      bool
	queues      [2]fifo[E]
	sent        [2]int
}

func newMergeState[E constraints.Ordered](rank, total int) *mergeState[E] {
	return &mergeState[E]{clusterSize: ClusterSize(rank), total: total}
}

func (s *mergeState[E]) push(msg Message[E]) {
	s.queues[msg.Tag&1].push(msg.Value)
	s.received++
}

// exhausted reports whether every element has been received.
func (s *mergeState[E]) exhausted() bool {
	return s.received >= s.total
}

func (s *mergeState[E]) done() bool {
	return s.exhausted() && s.queues[0].len() == 0 && s.queues[1].len() == 0
}

// activate closes the activation latch once one queue holds a full run
// and the other holds at least one element to compare against, or
// once there is nothing left to wait for. It reports whether the latch
// closed during this call.
func (s *mergeState[E]) activate() bool {
	if s.active {
		return false
	}
	n0, n1 := s.queues[0].len(), s.queues[1].len()
	s.active = (n0 >= s.clusterSize && n1 >= 1) ||
		(n1 >= s.clusterSize && n0 >= 1) ||
		s.exhausted()
	return s.active
}

// owed returns the queue that must supply the next element because the
// other queue has already supplied its full run of the current
// cluster.
func (s *mergeState[E]) owed() (tag Tag, forced bool) {
	full0, full1 := s.sent[0] >= s.clusterSize, s.sent[1] >= s.clusterSize
	if full0 == full1 {
		return Tag0, false
	}
	if s.sent[1] < s.sent[0] {
		return Tag1, true
	}
	return Tag0, true
}

func (s *mergeState[E]) choose() (tag Tag, ok bool) {
	if tag, forced := s.owed(); forced {
		if s.queues[tag].len() > 0 {
			return tag, true
		}
		if !s.exhausted() {
			return Tag0, false
		}
		// the owed run ended together with the input
	}
	q0, q1 := &s.queues[0], &s.queues[1]
	switch {
	case q0.len() > 0 && q1.len() > 0:
		if q1.front() < q0.front() {
			return Tag1, true
		}
		return Tag0, true
	case q0.len() > 0:
		return Tag0, true
	case q1.len() > 0:
		return Tag1, true
	default:
		return Tag0, false
	}
}

// next removes and returns the element to forward next, if any.
func (s *mergeState[E]) next() (value E, ok bool) {
	if !s.active {
		return
	}
	tag, ok := s.choose()
	if !ok {
		return
	}
	value = s.queues[tag].pop()
	s.sent[tag]++
	if s.sent[0] == s.clusterSize && s.sent[1] == s.clusterSize {
		s.sent = [2]int{}
	}
	return value, true
}

// merge runs the stage loop shared by mergers and sinks: receive while
// input is pending, and hand every element the state machine releases
// to forward.
func merge[E constraints.Ordered](
	ctx context.Context,
	log *logger.Logger,
	in *Link[E],
	s *mergeState[E],
	forward func(E) error,
) error {
	log = orDiscard(log).Start()
	forwarded := 0
	for !s.done() {
		if !s.exhausted() {
			msg, err := in.Receive(ctx)
			if err != nil {
				return log.Error(err)
			}
			s.push(msg)
		}
		if s.activate() {
			log.At("activate").Logf("received=%d q0=%d q1=%d", s.received, s.queues[0].len(), s.queues[1].len())
		}
		if value, ok := s.next(); ok {
			if err := forward(value); err != nil {
				return log.Error(err)
			}
			forwarded++
		}
	}
	log.Successf("forwarded=%d", forwarded)
	return nil
}

// retagger assigns outgoing tags in groups of one retag period,
// starting with Tag0.
type retagger struct {
	period int
	count  int
	tag    Tag
}

func (r *retagger) next() (tag Tag) {
	tag = r.tag
	if r.count++; r.count == r.period {
		r.count, r.tag = 0, r.tag.Flip()
	}
	return
}

/*
A Merger is an interior stage. It merges pairs of sorted runs of
ClusterSize(rank) elements into sorted runs of twice that length, and
sends them to the next stage, alternating the tag every
RetagPeriod(rank) messages.
*/
type Merger[E constraints.Ordered] struct {
	rank    int
	in, out *Link[E]
	log     *logger.Logger
}

// NewMerger creates the merger at position rank, receiving from in and
// sending to out.
func NewMerger[E constraints.Ordered](rank int, in, out *Link[E], log *logger.Logger) *Merger[E] {
	return &Merger[E]{rank: rank, in: in, out: out, log: log}
}

// Run implements the method of the Stage interface.
func (m *Merger[E]) Run(ctx context.Context, total int) error {
	tags := retagger{period: RetagPeriod(m.rank)}
	return merge(ctx, m.log, m.in, newMergeState[E](m.rank, total), func(value E) error {
		return m.out.Send(ctx, Message[E]{Value: value, Tag: tags.next()})
	})
}
