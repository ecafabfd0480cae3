// Package collcomm forms groups of simulated workers and
// gives each worker the point-to-point and collective
// communication it needs to take part in a reduction.
package collcomm

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/unixpickle/distmax/simulator"
)

// Root is the rank that receives reductions.
const Root = 0

// ErrGroupFormation is returned when a set of nodes
// cannot be turned into a Group.
var ErrGroupFormation = errors.New("collcomm: cannot form group")

// A Group is the fixed set of workers taking part in one
// run.
//
// Ranks are the indices into Ports, so they are
// contiguous and start at 0. Membership never changes
// after NewGroup returns.
type Group struct {
	// ID distinguishes this group's traffic from any
	// other group on the same network.
	ID string

	Loop    *simulator.EventLoop
	Network simulator.Network
	Ports   []*simulator.Port
}

// NewGroup assigns a rank to every node, in order.
//
// It fails with ErrGroupFormation if there are no nodes,
// or if any node is nil or listed twice.
func NewGroup(loop *simulator.EventLoop, network simulator.Network,
	nodes []*simulator.Node) (*Group, error) {
	if loop == nil || network == nil {
		return nil, fmt.Errorf("%w: missing loop or network", ErrGroupFormation)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: group has no members", ErrGroupFormation)
	}
	seen := map[*simulator.Node]bool{}
	ports := make([]*simulator.Port, len(nodes))
	for i, node := range nodes {
		if node == nil {
			return nil, fmt.Errorf("%w: nil node", ErrGroupFormation)
		} else if seen[node] {
			return nil, fmt.Errorf("%w: node listed twice", ErrGroupFormation)
		}
		seen[node] = true
		ports[i] = node.Port(loop)
	}
	return &Group{
		ID:      uuid.NewString(),
		Loop:    loop,
		Network: network,
		Ports:   ports,
	}, nil
}

// Size gets the number of workers.
func (g *Group) Size() int {
	return len(g.Ports)
}

// Spawn calls f for every worker in its own Goroutine on
// the group's event loop.
//
// Each call gets a fresh Comms for its rank.
func (g *Group) Spawn(f func(c *Comms)) {
	for i := range g.Ports {
		port := g.Ports[i]
		g.Loop.Go(func(h *simulator.Handle) {
			f(&Comms{
				Handle:  h,
				Port:    port,
				Ports:   g.Ports,
				Network: g.Network,
				GroupID: g.ID,
			})
		})
	}
}

// SpawnComms forms a group and spawns f on every worker.
func SpawnComms(loop *simulator.EventLoop, network simulator.Network, nodes []*simulator.Node,
	f func(c *Comms)) (*Group, error) {
	g, err := NewGroup(loop, network, nodes)
	if err != nil {
		return nil, err
	}
	g.Spawn(f)
	return g, nil
}
