package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// A Tag selects one of the two logical input queues of the receiving
// stage.
type Tag uint8

const (
	// Tag0 routes a message to the first queue.
	Tag0 Tag = iota

	// Tag1 routes a message to the second queue.
	Tag1
)

// Flip returns the other tag.
func (tag Tag) Flip() Tag {
	return tag ^ 1
}

// A Message is the unit of transport between two adjacent stages.
type Message[E constraints.Ordered] struct {
	Value E
	Tag   Tag
}

/*
A Link is an ordered, point-to-point channel between two adjacent
stages.

A Link has no buffer: Send blocks until the receiving stage calls
Receive, and Receive blocks until the sending stage calls Send.
Messages are received in the order in which they were sent.

Both operations also return when the given context is done, which is
how a failing stage releases its neighbours.
*/
type Link[E constraints.Ordered] struct {
	channel chan Message[E]
}

// NewLink creates an unbuffered link.
func NewLink[E constraints.Ordered]() *Link[E] {
	return &Link[E]{channel: make(chan Message[E])}
}

// Send passes a message to the stage at the other end of the link.
func (link *Link[E]) Send(ctx context.Context, msg Message[E]) error {
	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case link.channel <- msg:
		return nil
	}
}

// Receive waits for the next message from the stage at the other end
// of the link.
func (link *Link[E]) Receive(ctx context.Context) (msg Message[E], err error) {
	select {
	case <-ctx.Done():
		err = errors.WithStack(ctx.Err())
	case msg = <-link.channel:
	}
	return
}
