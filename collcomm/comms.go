package collcomm

import (
	"errors"
	"fmt"

	"github.com/unixpickle/distmax/simulator"
	"github.com/unixpickle/essentials"
)

// ErrRecvTimeout is returned by Recv when a deadline is
// set and passes before a matching message arrives.
var ErrRecvTimeout = errors.New("collcomm: receive deadline exceeded")

// ErrInvalidRank is returned when a collective names a
// rank outside the group.
var ErrInvalidRank = errors.New("collcomm: rank out of range")

// A Tag identifies one collective operation.
//
// Every worker draws tags in the same order, so the n-th
// collective gets the same tag on every worker.
type Tag int

// envelope wraps every vector sent between workers.
type envelope struct {
	GroupID string
	Tag     Tag
	Payload []int
}

// Comms is a single worker's view of its Group.
//
// A Comms is owned by one Goroutine. Messages for
// collectives the worker has not reached yet are held
// until the matching Recv.
type Comms struct {
	// Handle is the worker Goroutine's handle on the
	// event loop.
	Handle *simulator.Handle

	// Port is the worker's own port.
	Port *simulator.Port

	// Ports contains every worker's port, indexed by rank.
	Ports []*simulator.Port

	Network simulator.Network
	GroupID string

	nextTag   Tag
	pending   []*simulator.Message
	finalized bool

	hasDeadline bool
	deadline    float64
}

// Size gets the number of workers in the group.
func (c *Comms) Size() int {
	return len(c.Ports)
}

// Rank gets the current worker's rank.
func (c *Comms) Rank() int {
	return c.IndexOf(c.Port)
}

// IndexOf returns the rank of any port in the group.
func (c *Comms) IndexOf(p *simulator.Port) int {
	for i, port := range c.Ports {
		if port == p {
			return i
		}
	}
	panic("port is not in the group")
}

// NextTag reserves the tag for the next collective.
func (c *Comms) NextTag() Tag {
	c.checkOpen()
	t := c.nextTag
	c.nextTag++
	return t
}

// SetDeadline makes Recv fail with ErrRecvTimeout once
// the virtual clock passes t.
func (c *Comms) SetDeadline(t float64) {
	c.hasDeadline = true
	c.deadline = t
}

// ClearDeadline lets Recv block forever again.
func (c *Comms) ClearDeadline() {
	c.hasDeadline = false
}

// Send schedules a vector to be sent to the worker with
// rank dst.
func (c *Comms) Send(dst int, tag Tag, vec []int) {
	c.checkOpen()
	c.Network.Send(c.Handle, c.message(c.Ports[dst], tag, vec))
}

// Bcast sends a vector from root to every worker and
// returns it on every worker.
func (c *Comms) Bcast(root int, vec []int) ([]int, error) {
	if root < 0 || root >= c.Size() {
		return nil, fmt.Errorf("%w: root %d not in [0, %d)", ErrInvalidRank, root, c.Size())
	}
	tag := c.NextTag()
	if c.Rank() != root {
		res, _, err := c.Recv(tag)
		return res, err
	}
	messages := make([]*simulator.Message, 0, len(c.Ports)-1)
	for _, port := range c.Ports {
		if port != c.Port {
			messages = append(messages, c.message(port, tag, vec))
		}
	}
	if len(messages) > 0 {
		c.Network.Send(c.Handle, messages...)
	}
	return vec, nil
}

// Recv receives the next vector sent with the given tag,
// along with the sender's rank.
func (c *Comms) Recv(tag Tag) ([]int, int, error) {
	c.checkOpen()
	for i, msg := range c.pending {
		if env := msg.Message.(*envelope); env.Tag == tag {
			essentials.OrderedDelete(&c.pending, i)
			return env.Payload, c.IndexOf(msg.Source), nil
		}
	}

	var timerStream *simulator.EventStream
	if c.hasDeadline {
		remaining := c.deadline - c.Handle.Time()
		if remaining <= 0 {
			return nil, 0, ErrRecvTimeout
		}
		timerStream = c.Handle.Stream()
		timer := c.Handle.Schedule(timerStream, nil, remaining)
		defer c.Handle.Cancel(timer)
	}

	for {
		var event *simulator.Event
		if timerStream != nil {
			event = c.Handle.Poll(timerStream, c.Port.Incoming)
			if event.Stream == timerStream {
				return nil, 0, ErrRecvTimeout
			}
		} else {
			event = c.Handle.Poll(c.Port.Incoming)
		}
		msg := event.Message.(*simulator.Message)
		env, ok := msg.Message.(*envelope)
		if !ok {
			panic("unexpected message type")
		} else if env.GroupID != c.GroupID {
			panic("message from a different group")
		}
		if env.Tag == tag {
			return env.Payload, c.IndexOf(msg.Source), nil
		}
		c.pending = append(c.pending, msg)
	}
}

// Barrier blocks until every worker has called Barrier.
func (c *Comms) Barrier() error {
	tag := c.NextTag()
	if c.Rank() == Root {
		for i := 1; i < c.Size(); i++ {
			if _, _, err := c.Recv(tag); err != nil {
				return err
			}
		}
		for i := range c.Ports {
			if i != Root {
				c.Send(i, tag, nil)
			}
		}
		return nil
	}
	c.Send(Root, tag, nil)
	_, _, err := c.Recv(tag)
	return err
}

// Finalize tears the worker down together with the rest
// of the group.
//
// Every worker must call Finalize before its Goroutine
// exits. If one worker leaves without it, the others
// block in Finalize forever. After Finalize the Comms
// must not be used again.
func (c *Comms) Finalize() error {
	if err := c.Barrier(); err != nil {
		return err
	}
	c.finalized = true
	return nil
}

// Finalized reports whether Finalize has completed.
func (c *Comms) Finalized() bool {
	return c.finalized
}

func (c *Comms) message(dst *simulator.Port, tag Tag, vec []int) *simulator.Message {
	return &simulator.Message{
		Source:  c.Port,
		Dest:    dst,
		Message: &envelope{GroupID: c.GroupID, Tag: tag, Payload: vec},
		Size:    float64(len(vec)*8) + 1.0,
	}
}

func (c *Comms) checkOpen() {
	if c.finalized {
		panic("use of finalized Comms")
	}
}
