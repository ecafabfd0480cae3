// Command bench_reduce prints a Markdown table of how much
// virtual time each reducer takes on various networks.
package main

import (
	"fmt"
	"strconv"

	"github.com/unixpickle/distmax/collcomm"
	"github.com/unixpickle/distmax/collcomm/reduce"
	"github.com/unixpickle/distmax/simulator"
	"github.com/unixpickle/essentials"
)

// RunInfo describes a specific network configuration.
type RunInfo struct {
	NumNodes int
	Latency  float64
	Rate     float64
}

// Run creates a group and drops each worker into its own
// Goroutine.
func (r *RunInfo) Run(loop *simulator.EventLoop, commFn func(c *collcomm.Comms)) {
	nodes := make([]*simulator.Node, r.NumNodes)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	network := simulator.FixedNetwork{Latency: r.Latency, Rate: r.Rate}
	_, err := collcomm.SpawnComms(loop, network, nodes, commFn)
	essentials.Must(err)
	loop.MustRun()
}

func main() {
	reducers := []reduce.Reducer{
		reduce.NaiveReducer{},
		reduce.TreeReducer{},
		reduce.RingReducer{},
	}
	reducerNames := []string{"Naive", "Tree", "Ring"}
	runs := []RunInfo{
		{NumNodes: 2, Latency: 0.1, Rate: 1e6},
		{NumNodes: 16, Latency: 1e-3, Rate: 1e6},
		{NumNodes: 32, Latency: 0.1, Rate: 1e6},
		{NumNodes: 32, Latency: 1e-4, Rate: 1e9},
	}
	vecSizes := []int{1, 1000}

	fmt.Print("| Nodes | Latency | NIC rate | Size ")
	for _, name := range reducerNames {
		fmt.Printf("| %s ", name)
	}
	fmt.Println("|")
	for i := 0; i < 4+len(reducers); i++ {
		fmt.Print("|:--")
	}
	fmt.Println("|")

	for _, runInfo := range runs {
		for _, size := range vecSizes {
			fmt.Printf(
				"| %d | %s | %s | %d ",
				runInfo.NumNodes,
				strconv.FormatFloat(runInfo.Latency, 'f', -1, 64),
				strconv.FormatFloat(runInfo.Rate, 'E', -1, 64),
				size,
			)
			for _, reducer := range reducers {
				loop := simulator.NewEventLoop()
				runInfo.Run(loop, func(c *collcomm.Comms) {
					_, err := reducer.Reduce(c, make([]int, size), collcomm.Max, collcomm.Root)
					essentials.Must(err)
				})
				fmt.Printf("| %f ", loop.Time())
			}
			fmt.Println("|")
		}
	}
}
