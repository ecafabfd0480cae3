// Package dataset produces each worker's private integers
// and folds them down to a local maximum.
package dataset

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/unixpickle/essentials"
)

// DefaultLimit is the exclusive upper bound on generated
// values.
const DefaultLimit = 100

// ErrEmptyDataset is returned by LocalMax for a dataset
// with no values, which has no maximum.
var ErrEmptyDataset = errors.New("dataset: empty dataset has no maximum")

// A Source produces a worker's dataset.
type Source interface {
	Ints(n int) []int
}

// RandSource generates uniform values in [0, Limit).
type RandSource struct {
	Limit int
	rng   *rand.Rand
}

// NewRandSource creates a RandSource with its own
// generator. A non-positive limit means DefaultLimit.
func NewRandSource(seed int64, limit int) *RandSource {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RandSource{Limit: limit, rng: rand.New(rand.NewSource(seed))}
}

// Ints generates n values.
func (r *RandSource) Ints(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = r.rng.Intn(r.Limit)
	}
	return res
}

// SeedFor derives a per-worker seed from its rank and the
// wall clock, so workers started together still generate
// different data.
func SeedFor(rank int, now time.Time) int64 {
	return int64(rank+1) * now.Unix()
}

// FixedSource always returns the same values, truncated or
// cycled to the requested length.
type FixedSource []int

// Ints returns n values from the fixed sequence.
func (f FixedSource) Ints(n int) []int {
	res := make([]int, n)
	if len(f) == 0 {
		return res
	}
	for i := range res {
		res[i] = f[i%len(f)]
	}
	return res
}

// LocalMax returns the largest value in a single pass.
func LocalMax(values []int) (int, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	best := values[0]
	for _, x := range values[1:] {
		best = essentials.MaxInt(best, x)
	}
	return best, nil
}

// Format renders values the way worker reports print
// them, with a trailing comma after every value.
func Format(values []int) string {
	var b strings.Builder
	for _, x := range values {
		b.WriteString(strconv.Itoa(x))
		b.WriteByte(',')
	}
	return b.String()
}
