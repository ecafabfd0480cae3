package reduce

import "github.com/unixpickle/distmax/collcomm"

// A TreeReducer arranges the workers in a binary tree
// rooted at the target rank, and combines vectors on the
// way up the tree.
type TreeReducer struct{}

// Reduce calls fn at every inner node of the tree and
// returns the final vector at the root.
func (t TreeReducer) Reduce(c *collcomm.Comms, data []int, fn collcomm.ReduceFn,
	root int) ([]int, error) {
	if err := checkRoot(c, root); err != nil {
		return nil, err
	}
	dataTag, doneTag := c.NextTag(), c.NextTag()

	parent, children := positionInTree(virtualRank(c, root), c.Size())

	messages := [][]int{data}
	for range children {
		msg, _, err := c.Recv(dataTag)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	combined := messages[0]
	if len(messages) > 1 {
		combined = fn(c.Handle, messages...)
	}
	if parent < 0 {
		return combined, finishRound(c, root, doneTag)
	}
	c.Send(realRank(c, root, parent), dataTag, combined)
	return nil, finishRound(c, root, doneTag)
}

// positionInTree returns the parent and children of a
// virtual rank in a breadth-first binary tree.
//
// The parent is -1 for the root. There may be no children.
func positionInTree(idx, size int) (parent int, children []int) {
	parent = -1
	if idx > 0 {
		parent = (idx - 1) / 2
	}
	for _, child := range []int{idx*2 + 1, idx*2 + 2} {
		if child < size {
			children = append(children, child)
		}
	}
	return
}
