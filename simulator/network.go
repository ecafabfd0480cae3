package simulator

import (
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// A Node represents a machine on a virtual network.
type Node struct {
	unused int
}

// NewNode creates a new, unique Node.
func NewNode() *Node {
	return &Node{}
}

// Port creates a new Port on the Node.
func (n *Node) Port(loop *EventLoop) *Port {
	return &Port{Node: n, Incoming: loop.Stream()}
}

// A Port is an endpoint on a Node. Data is sent from
// Ports and received on Ports.
type Port struct {
	Node *Node

	// A stream of *Message objects.
	Incoming *EventStream
}

// Recv blocks until the next message arrives.
func (p *Port) Recv(h *Handle) *Message {
	return h.Poll(p.Incoming).Message.(*Message)
}

// A Message is a chunk of data sent between Ports.
type Message struct {
	Source  *Port
	Dest    *Port
	Message interface{}
	Size    float64
}

// A Network carries Messages between Ports.
type Network interface {
	// Send schedules messages for delivery on their
	// destinations' Incoming streams.
	//
	// Send never blocks.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork delays every message by a uniformly
// random amount in [0, 1).
type RandomNetwork struct{}

// Send sends the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, rand.Float64())
	}
}

// A FixedNetwork delivers every message after the same
// latency plus its transmission time.
type FixedNetwork struct {
	Latency float64

	// Rate is in bytes per unit of virtual time.
	// If 0, transmission is instant.
	Rate float64
}

// Send sends the messages with a deterministic delay.
func (f FixedNetwork) Send(h *Handle, msgs ...*Message) {
	for _, msg := range msgs {
		delay := f.Latency
		if f.Rate > 0 {
			delay += msg.Size / f.Rate
		}
		h.Schedule(msg.Dest.Incoming, msg, delay)
	}
}

// An OrderedNetwork delivers the messages bound for each
// Node in the order they were sent, with random latency.
//
// Nodes can be taken down, which silently drops all of
// their in-flight and future traffic.
type OrderedNetwork struct {
	Rate             float64
	MaxRandomLatency float64

	lock      sync.Mutex
	nextTimes map[*Node]float64
	downNodes map[*Node]bool
	timers    map[*Node][]*Timer
}

// NewOrderedNetwork creates an OrderedNetwork with every
// Node up.
func NewOrderedNetwork(rate, maxRandomLatency float64) *OrderedNetwork {
	return &OrderedNetwork{
		Rate:             rate,
		MaxRandomLatency: maxRandomLatency,
		nextTimes:        map[*Node]float64{},
		downNodes:        map[*Node]bool{},
		timers:           map[*Node][]*Timer{},
	}
}

// Send sends the messages, queueing each one behind the
// previous message to the same destination.
func (o *OrderedNetwork) Send(h *Handle, msgs ...*Message) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.dropFired(h)

	now := h.Time()
	for _, msg := range msgs {
		src, dst := msg.Source.Node, msg.Dest.Node
		if o.downNodes[src] || o.downNodes[dst] {
			continue
		}
		delay := rand.Float64()*o.MaxRandomLatency + msg.Size/o.Rate
		if t, ok := o.nextTimes[dst]; ok && t > now {
			delay += t - now
		}
		timer := h.Schedule(msg.Dest.Incoming, msg, delay)
		o.nextTimes[dst] = now + delay
		o.timers[dst] = append(o.timers[dst], timer)
		o.timers[src] = append(o.timers[src], timer)
	}
}

// SetDown marks a Node as down or up.
//
// Taking a Node down cancels every message still in
// flight to or from it.
func (o *OrderedNetwork) SetDown(h *Handle, node *Node, down bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.downNodes[node] = down
	if !down {
		return
	}
	delete(o.nextTimes, node)

	o.dropFired(h)
	canceled := map[*Timer]bool{}
	for _, t := range o.timers[node] {
		canceled[t] = true
		h.Cancel(t)
	}
	delete(o.timers, node)
	o.filterTimers(func(t *Timer) bool {
		return !canceled[t]
	})
}

// IsDown reports whether SetDown took the Node down.
func (o *OrderedNetwork) IsDown(node *Node) bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.downNodes[node]
}

func (o *OrderedNetwork) dropFired(h *Handle) {
	now := h.Time()
	o.filterTimers(func(t *Timer) bool {
		return t.Time() >= now
	})
}

func (o *OrderedNetwork) filterTimers(keep func(t *Timer) bool) {
	for node, timers := range o.timers {
		for i := 0; i < len(timers); i++ {
			if !keep(timers[i]) {
				essentials.UnorderedDelete(&timers, i)
				i--
			}
		}
		o.timers[node] = timers
	}
}
