package gatt

// Notification is an attribute value event held back because it arrived
// while an unrelated response was awaited.
type Notification struct {
	Handle  uint16
	Payload []byte
}

// eventQueue preserves deferred notifications in arrival order. Ring buffers
// with overwrite-oldest semantics are ruled out here: a deferred event must
// be delivered exactly once, never dropped.
type eventQueue struct {
	events []Notification
}

func (q *eventQueue) push(n Notification) {
	q.events = append(q.events, n)
}

// drain hands out everything buffered so far, oldest first, and empties the
// queue.
func (q *eventQueue) drain() []Notification {
	events := q.events
	q.events = nil
	return events
}

func (q *eventQueue) len() int {
	return len(q.events)
}
