package reduce

import (
	"errors"
	"fmt"

	"github.com/unixpickle/distmax/collcomm"
)

// WithTimeout wraps a Reducer so that a round which does
// not finish within timeout units of virtual time fails
// with ErrReductionStall instead of blocking forever.
//
// The wrapped reducer is unchanged. A worker that times
// out has left the round, so the group should be torn
// down rather than reused.
func WithTimeout(r Reducer, timeout float64) Reducer {
	return &timeoutReducer{Reducer: r, Timeout: timeout}
}

type timeoutReducer struct {
	Reducer
	Timeout float64
}

func (t *timeoutReducer) Reduce(c *collcomm.Comms, data []int, fn collcomm.ReduceFn,
	root int) ([]int, error) {
	c.SetDeadline(c.Handle.Time() + t.Timeout)
	defer c.ClearDeadline()
	res, err := t.Reducer.Reduce(c, data, fn, root)
	if errors.Is(err, collcomm.ErrRecvTimeout) {
		return nil, fmt.Errorf("%w: rank %d waited %v", ErrReductionStall, c.Rank(), t.Timeout)
	}
	return res, err
}
