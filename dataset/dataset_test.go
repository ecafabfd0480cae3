package dataset

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestLocalMax(t *testing.T) {
	cases := []struct {
		values   []int
		expected int
	}{
		{[]int{5}, 5},
		{[]int{0, 0, 0}, 0},
		{[]int{3, 99, 42, 7}, 99},
		{[]int{-4, -2, -9}, -2},
		{[]int{math.MinInt, math.MaxInt, 0}, math.MaxInt},
		{[]int{math.MinInt}, math.MinInt},
	}
	for _, tc := range cases {
		actual, err := LocalMax(tc.values)
		if err != nil {
			t.Errorf("%v: %v", tc.values, err)
		} else if actual != tc.expected {
			t.Errorf("%v: expected %d but got %d", tc.values, tc.expected, actual)
		}
	}
}

func TestLocalMaxEmpty(t *testing.T) {
	for _, values := range [][]int{nil, {}} {
		if _, err := LocalMax(values); err != ErrEmptyDataset {
			t.Errorf("expected ErrEmptyDataset but got %v", err)
		}
	}
}

func TestRandSource(t *testing.T) {
	values := NewRandSource(1337, 0).Ints(1000)
	if len(values) != 1000 {
		t.Fatalf("expected 1000 values but got %d", len(values))
	}
	for _, x := range values {
		if x < 0 || x >= DefaultLimit {
			t.Fatalf("value out of range: %d", x)
		}
	}
	again := NewRandSource(1337, 0).Ints(1000)
	if !reflect.DeepEqual(values, again) {
		t.Error("same seed produced different values")
	}
	if len(NewRandSource(1, 5).Ints(0)) != 0 {
		t.Error("expected no values")
	}
}

func TestSeedFor(t *testing.T) {
	now := time.Unix(1000, 0)
	seen := map[int64]bool{}
	for rank := 0; rank < 8; rank++ {
		seed := SeedFor(rank, now)
		if seen[seed] {
			t.Errorf("rank %d reuses seed %d", rank, seed)
		}
		seen[seed] = true
	}
	if SeedFor(2, now) != 3000 {
		t.Errorf("unexpected seed: %d", SeedFor(2, now))
	}
}

func TestFixedSource(t *testing.T) {
	src := FixedSource{1, 2, 3}
	if actual := src.Ints(5); !reflect.DeepEqual(actual, []int{1, 2, 3, 1, 2}) {
		t.Errorf("unexpected values: %v", actual)
	}
	if actual := FixedSource(nil).Ints(2); !reflect.DeepEqual(actual, []int{0, 0}) {
		t.Errorf("unexpected values: %v", actual)
	}
}

func TestFormat(t *testing.T) {
	if s := Format([]int{4, 0, 17}); s != "4,0,17," {
		t.Errorf("unexpected format: %q", s)
	}
	if s := Format(nil); s != "" {
		t.Errorf("unexpected format: %q", s)
	}
}
