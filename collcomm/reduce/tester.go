package reduce

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/unixpickle/distmax/collcomm"
	"github.com/unixpickle/distmax/simulator"
)

// RunReducerTests runs a battery of tests on a Reducer,
// across group sizes, roots and network models.
func RunReducerTests(t *testing.T, reducer Reducer) {
	for _, numNodes := range []int{1, 2, 3, 5, 16, 17} {
		for _, size := range []int{0, 1, 37} {
			for _, netName := range []string{"Random", "Fixed", "Ordered"} {
				roots := []int{0}
				if numNodes > 1 {
					roots = append(roots, numNodes-1)
				}
				for _, root := range roots {
					testName := fmt.Sprintf("Nodes=%d,Size=%d,Net=%s,Root=%d", numNodes, size,
						netName, root)
					t.Run(testName, func(t *testing.T) {
						vectors := randomVectors(numNodes, size)
						results := runReduction(t, reducer, testNetwork(netName), vectors,
							collcomm.Max, root)
						verifyReductionResults(t, results, expectedMax(vectors), root)
					})
				}
			}
		}
	}
	t.Run("Sum", func(t *testing.T) {
		vectors := [][]int{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
		results := runReduction(t, reducer, simulator.RandomNetwork{}, vectors, collcomm.Sum, 0)
		verifyReductionResults(t, results, []int{16, 20}, 0)
	})
	t.Run("InvalidRoot", func(t *testing.T) {
		loop := simulator.NewEventLoop()
		nodes := []*simulator.Node{simulator.NewNode(), simulator.NewNode()}
		_, err := collcomm.SpawnComms(loop, simulator.RandomNetwork{}, nodes, func(c *collcomm.Comms) {
			if _, err := reducer.Reduce(c, []int{1}, collcomm.Max, 2); err == nil {
				t.Error("expected error for out-of-range root")
			}
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := loop.Run(); err != nil {
			t.Fatal(err)
		}
	})
}

func testNetwork(name string) simulator.Network {
	switch name {
	case "Random":
		return simulator.RandomNetwork{}
	case "Fixed":
		return simulator.FixedNetwork{Latency: 0.1, Rate: 1e3}
	case "Ordered":
		return simulator.NewOrderedNetwork(1e3, 0.1)
	}
	panic("unknown network: " + name)
}

func randomVectors(numNodes, size int) [][]int {
	vectors := make([][]int, numNodes)
	for i := range vectors {
		vectors[i] = make([]int, size)
		for j := range vectors[i] {
			vectors[i][j] = rand.Intn(2001) - 1000
		}
	}
	return vectors
}

func expectedMax(vectors [][]int) []int {
	res := append([]int{}, vectors[0]...)
	for _, v := range vectors[1:] {
		for i, x := range v {
			if x > res[i] {
				res[i] = x
			}
		}
	}
	return res
}

// runReduction reduces one vector per node and returns
// what each rank got back.
func runReduction(t *testing.T, reducer Reducer, network simulator.Network, vectors [][]int,
	fn collcomm.ReduceFn, root int) [][]int {
	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, len(vectors))
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	results := make([][]int, len(vectors))
	_, err := collcomm.SpawnComms(loop, network, nodes, func(c *collcomm.Comms) {
		res, err := reducer.Reduce(c, vectors[c.Rank()], fn, root)
		if err != nil {
			t.Error(err)
		}
		results[c.Rank()] = res
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	return results
}

func verifyReductionResults(t *testing.T, results [][]int, expected []int, root int) {
	for i, res := range results {
		if i != root && res != nil {
			t.Errorf("non-root rank %d got a result: %v", i, res)
		}
	}
	if len(results[root]) != len(expected) {
		t.Fatalf("root result has length %d but expected %d", len(results[root]), len(expected))
	}
	if len(expected) > 0 && !reflect.DeepEqual(results[root], expected) {
		t.Errorf("expected %v but got %v", expected, results[root])
	}
}
