// Command mpimax generates n random values on each worker
// of a simulated group and prints the global maximum.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/distmax/collcomm/reduce"
	"github.com/unixpickle/distmax/config"
	"github.com/unixpickle/distmax/dataset"
	"github.com/unixpickle/distmax/mpimax"
	"github.com/unixpickle/essentials"
)

func main() {
	var groupSize int
	var reducerName string
	var networkPath string
	var timeout float64
	var limit int
	flag.IntVar(&groupSize, "np", 4, "number of workers in the group")
	flag.StringVar(&reducerName, "reducer", "tree", "reduction algorithm (naive, tree or ring)")
	flag.StringVar(&networkPath, "network", "", "YAML file describing the simulated network")
	flag.Float64Var(&timeout, "timeout", 0, "virtual-time limit on the reduction (0 waits forever)")
	flag.IntVar(&limit, "limit", dataset.DefaultLimit, "generated values lie in [0, limit)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: mpimax [flags] <n>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		essentials.Die(fmt.Errorf("%w: expected exactly one dataset length", mpimax.ErrInvalidArgument))
	}
	n, err := mpimax.ParseN(flag.Arg(0))
	if err != nil {
		essentials.Die(err)
	}

	reducer, err := mpimax.ReducerByName(reducerName)
	if err != nil {
		essentials.Die(err)
	}
	if timeout > 0 {
		reducer = reduce.WithTimeout(reducer, timeout)
	}

	netConfig := config.DefaultNetwork()
	if networkPath != "" {
		netConfig, err = config.LoadNetwork(networkPath)
		if err != nil {
			essentials.Die(err)
		}
	}
	network, err := netConfig.Build()
	if err != nil {
		essentials.Die(err)
	}

	cfg := &mpimax.Config{
		N:       n,
		Limit:   limit,
		Reducer: reducer,
		Out:     os.Stdout,
	}
	if _, err := mpimax.Run(cfg, network, groupSize); err != nil {
		essentials.Die(err)
	}
}
