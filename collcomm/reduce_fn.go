package collcomm

import (
	"github.com/unixpickle/distmax/simulator"
	"github.com/unixpickle/essentials"
)

// OpTime is the amount of virtual time it takes to
// combine two integers.
const OpTime = 1e-9

// A ReduceFn combines many vectors element-wise into a
// single vector.
//
// A ReduceFn must be associative and commutative, since
// reducers are free to combine contributions in any order.
type ReduceFn func(h *simulator.Handle, vecs ...[]int) []int

// Max is a ReduceFn that computes an element-wise
// maximum.
func Max(h *simulator.Handle, vecs ...[]int) []int {
	return combine(h, vecs, func(x, y int) int {
		return essentials.MaxInt(x, y)
	})
}

// Min is a ReduceFn that computes an element-wise
// minimum.
func Min(h *simulator.Handle, vecs ...[]int) []int {
	return combine(h, vecs, func(x, y int) int {
		return essentials.MinInt(x, y)
	})
}

// Sum is a ReduceFn that computes a vector sum.
func Sum(h *simulator.Handle, vecs ...[]int) []int {
	return combine(h, vecs, func(x, y int) int {
		return x + y
	})
}

func combine(h *simulator.Handle, vecs [][]int, f func(x, y int) int) []int {
	for _, v := range vecs[1:] {
		if len(v) != len(vecs[0]) {
			panic("mismatching lengths")
		}
	}
	res := append([]int{}, vecs[0]...)
	for _, v := range vecs[1:] {
		for i, x := range v {
			res[i] = f(res[i], x)
		}
	}

	// Simulate computation time.
	h.Sleep(OpTime * float64(len(vecs)*len(vecs[0])))

	return res
}
