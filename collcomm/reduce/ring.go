package reduce

import "github.com/unixpickle/distmax/collcomm"

// A RingReducer passes a running result around the ring
// of workers, ending at the root.
//
// The worker just before the root in rank order starts
// the ring. Every worker combines its own vector with the
// one it receives and forwards the result to the previous
// rank.
type RingReducer struct{}

// Reduce pushes the running reduction through the ring.
func (r RingReducer) Reduce(c *collcomm.Comms, data []int, fn collcomm.ReduceFn,
	root int) ([]int, error) {
	if err := checkRoot(c, root); err != nil {
		return nil, err
	}
	dataTag, doneTag := c.NextTag(), c.NextTag()

	idx := virtualRank(c, root)
	running := data
	if idx+1 < c.Size() {
		incoming, _, err := c.Recv(dataTag)
		if err != nil {
			return nil, err
		}
		running = fn(c.Handle, incoming, data)
	}

	if idx == 0 {
		return running, finishRound(c, root, doneTag)
	}
	c.Send(realRank(c, root, idx-1), dataTag, running)
	return nil, finishRound(c, root, doneTag)
}
