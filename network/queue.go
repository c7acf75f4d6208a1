package network

import "github.com/tklenze/streamletsim/message"

// queuedMessage is a message sitting in some validator's receive queue,
// tagged with who it came from.
type queuedMessage struct {
	from int
	msg  message.Envelope
}

// popFront removes and returns the first element of q, and the
// remaining queue.
func popFront(q []queuedMessage) (queuedMessage, []queuedMessage) {
	return q[0], q[1:]
}
