// Package mpimax computes the maximum of every worker's
// locally generated data with one collective reduction.
package mpimax

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/unixpickle/distmax/collcomm"
	"github.com/unixpickle/distmax/collcomm/reduce"
	"github.com/unixpickle/distmax/dataset"
	"github.com/unixpickle/distmax/simulator"
)

// ErrInvalidArgument is returned for a dataset length or
// group setting that cannot be used.
var ErrInvalidArgument = errors.New("mpimax: invalid argument")

// Reducers maps reducer names to implementations.
var Reducers = map[string]reduce.Reducer{
	"naive": reduce.NaiveReducer{},
	"tree":  reduce.TreeReducer{},
	"ring":  reduce.RingReducer{},
}

// ReducerByName looks up one of Reducers.
func ReducerByName(name string) (reduce.Reducer, error) {
	r, ok := Reducers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reducer %q", ErrInvalidArgument, name)
	}
	return r, nil
}

// ParseN parses the dataset length argument.
//
// The length must be a positive integer; an empty dataset
// has no maximum.
func ParseN(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: dataset length %q is not an integer", ErrInvalidArgument, arg)
	} else if n < 1 {
		return 0, fmt.Errorf("%w: dataset length must be positive, got %d", ErrInvalidArgument, n)
	}
	return n, nil
}

// Config controls one round of the computation.
type Config struct {
	// N is the number of values each worker generates.
	N int

	// Limit bounds generated values to [0, Limit).
	// If 0, dataset.DefaultLimit is used.
	Limit int

	// Reducer defaults to a TreeReducer.
	Reducer reduce.Reducer

	// Source returns a worker's data source.
	// If nil, each worker gets a RandSource seeded from
	// its rank and the wall clock.
	Source func(rank int) dataset.Source

	// Out receives the diagnostic lines of every worker.
	// If nil, output is discarded.
	Out io.Writer
}

// Validate checks the settings that every worker relies
// on before the group is formed.
func (c *Config) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("%w: dataset length must be positive, got %d", ErrInvalidArgument, c.N)
	} else if c.Limit < 0 {
		return fmt.Errorf("%w: negative value limit %d", ErrInvalidArgument, c.Limit)
	}
	return nil
}

func (c *Config) reducer() reduce.Reducer {
	if c.Reducer == nil {
		return reduce.TreeReducer{}
	}
	return c.Reducer
}

func (c *Config) source(rank int) dataset.Source {
	if c.Source != nil {
		return c.Source(rank)
	}
	return dataset.NewRandSource(dataset.SeedFor(rank, time.Now()), c.Limit)
}

// A Report is what one worker observed in its round.
type Report struct {
	Rank     int
	Values   []int
	LocalMax int

	// GlobalMax is only set on the root.
	GlobalMax    int
	HasGlobalMax bool
}

// RunWorker performs one worker's round: generate, fold,
// reduce, report and finalize.
//
// A worker whose fold or reduction fails returns without
// calling Finalize, so its peers stall in Finalize (or in
// the reduction) and Run reports this worker's error.
//
// out must be safe for concurrent use by every worker.
func RunWorker(c *collcomm.Comms, cfg *Config, out io.Writer) (*Report, error) {
	values := cfg.source(c.Rank()).Ints(cfg.N)
	localMax, err := dataset.LocalMax(values)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Node: [%d] - Local max of [%s] = %d\n", c.Rank(),
		dataset.Format(values), localMax)

	report := &Report{Rank: c.Rank(), Values: values, LocalMax: localMax}

	res, err := cfg.reducer().Reduce(c, []int{localMax}, collcomm.Max, collcomm.Root)
	if err != nil {
		return report, err
	}
	if c.Rank() == collcomm.Root {
		report.GlobalMax = res[0]
		report.HasGlobalMax = true
		fmt.Fprintf(out, "Global Max = %d\n", report.GlobalMax)
	}

	return report, c.Finalize()
}

// A Result summarizes a completed run.
type Result struct {
	GroupID   string
	GlobalMax int

	// Reports is indexed by rank.
	Reports []*Report

	// Time is the virtual time the run took.
	Time float64
}

// Run forms a group of groupSize workers on the network
// and runs one round on every worker.
//
// If the group stalls, Run returns simulator.ErrDeadlock,
// joined with the error of the worker that failed first
// in rank order, if any.
func Run(cfg *Config, network simulator.Network, groupSize int) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if groupSize < 1 {
		return nil, fmt.Errorf("%w: group size %d", collcomm.ErrGroupFormation, groupSize)
	}

	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, groupSize)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	group, err := collcomm.NewGroup(loop, network, nodes)
	if err != nil {
		return nil, err
	}

	out := &lockedWriter{w: cfg.Out}
	if out.w == nil {
		out.w = io.Discard
	}
	reports := make([]*Report, groupSize)
	errs := make([]error, groupSize)
	group.Spawn(func(c *collcomm.Comms) {
		reports[c.Rank()], errs[c.Rank()] = RunWorker(c, cfg, out)
	})
	loopErr := loop.Run()

	// A worker that failed leaves its peers stalled, so its
	// error comes before the deadlock it caused.
	for rank, err := range errs {
		if err == nil {
			continue
		}
		if loopErr != nil {
			return nil, fmt.Errorf("rank %d: %w (group %s: %w)", rank, err, group.ID, loopErr)
		}
		return nil, fmt.Errorf("rank %d: %w", rank, err)
	}
	if loopErr != nil {
		return nil, fmt.Errorf("group %s: %w", group.ID, loopErr)
	}

	return &Result{
		GroupID:   group.ID,
		GlobalMax: reports[collcomm.Root].GlobalMax,
		Reports:   reports,
		Time:      loop.Time(),
	}, nil
}

type lockedWriter struct {
	lock sync.Mutex
	w    io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.w.Write(p)
}
