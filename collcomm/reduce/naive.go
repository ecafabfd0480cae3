package reduce

import "github.com/unixpickle/distmax/collcomm"

// A NaiveReducer has every worker send its vector
// straight to the root.
type NaiveReducer struct{}

// Reduce gathers every vector at the root and runs fn on
// all of them at once.
func (n NaiveReducer) Reduce(c *collcomm.Comms, data []int, fn collcomm.ReduceFn,
	root int) ([]int, error) {
	if err := checkRoot(c, root); err != nil {
		return nil, err
	}
	dataTag, doneTag := c.NextTag(), c.NextTag()

	if c.Rank() != root {
		c.Send(root, dataTag, data)
		return nil, finishRound(c, root, doneTag)
	}

	gatheredVecs := make([][]int, c.Size())
	gatheredVecs[root] = data
	for i := 0; i < c.Size()-1; i++ {
		incoming, source, err := c.Recv(dataTag)
		if err != nil {
			return nil, err
		}
		gatheredVecs[source] = incoming
	}

	res := fn(c.Handle, gatheredVecs...)
	return res, finishRound(c, root, doneTag)
}
