package pipeline

// fifo is a first-in first-out queue of elements owned by a single
// stage.
type fifo[E any] struct {
	items []E
	head  int
}

func (q *fifo[E]) len() int {
	return len(q.items) - q.head
}

func (q *fifo[E]) push(value E) {
	q.items = append(q.items, value)
}

func (q *fifo[E]) front() E {
	return q.items[q.head]
}

func (q *fifo[E]) pop() (value E) {
	value = q.items[q.head]
	var zero E
	q.items[q.head] = zero
	q.head++
	switch {
	case q.head == len(q.items):
		q.items, q.head = q.items[:0], 0
	case q.head > len(q.items)/2:
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items, q.head = q.items[:n], 0
	}
	return
}
