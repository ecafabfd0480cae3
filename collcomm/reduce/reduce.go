// Package reduce implements collective reductions that
// deliver the combined vector of every worker to a single
// target rank.
package reduce

import (
	"errors"
	"fmt"

	"github.com/unixpickle/distmax/collcomm"
)

var (
	// ErrInvalidRoot is returned when the target rank is
	// not in the group.
	ErrInvalidRoot = errors.New("reduce: root rank out of range")

	// ErrReductionStall is returned by WithTimeout reducers
	// when some peer never contributed in time.
	ErrReductionStall = errors.New("reduce: reduction stalled")
)

// A Reducer combines one vector per worker into a single
// vector delivered to the root rank.
//
// Every worker in the group must call Reduce exactly once
// per round, with the same fn, root and vector length.
// Reduce blocks until the result exists at the root, so
// no worker leaves before every worker has contributed.
// If a worker never calls Reduce, its peers block forever.
//
// The root receives the reduced vector. Every other
// worker receives nil.
type Reducer interface {
	Reduce(c *collcomm.Comms, data []int, fn collcomm.ReduceFn, root int) ([]int, error)
}

// Allreduce reduces data to collcomm.Root and broadcasts
// the result so that every worker receives it.
func Allreduce(r Reducer, c *collcomm.Comms, data []int, fn collcomm.ReduceFn) ([]int, error) {
	res, err := r.Reduce(c, data, fn, collcomm.Root)
	if err != nil {
		return nil, err
	}
	return c.Bcast(collcomm.Root, res)
}

func checkRoot(c *collcomm.Comms, root int) error {
	if root < 0 || root >= c.Size() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRoot, root, c.Size())
	}
	return nil
}

// finishRound tells every non-root worker that the
// aggregate exists, or waits to be told so.
func finishRound(c *collcomm.Comms, root int, tag collcomm.Tag) error {
	if c.Rank() != root {
		_, _, err := c.Recv(tag)
		return err
	}
	for i := 0; i < c.Size(); i++ {
		if i != root {
			c.Send(i, tag, nil)
		}
	}
	return nil
}

// virtualRank maps ranks so that root becomes 0.
func virtualRank(c *collcomm.Comms, root int) int {
	return (c.Rank() - root + c.Size()) % c.Size()
}

// realRank undoes virtualRank.
func realRank(c *collcomm.Comms, root, v int) int {
	return (v + root) % c.Size()
}
