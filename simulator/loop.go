// Package simulator runs Goroutines against a virtual
// clock so that a group of workers can be simulated as if
// they were separate machines on a network.
package simulator

import (
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// ErrDeadlock is returned by Run when every live
// Goroutine is polling and no timers remain.
//
// For a group of workers this is what an indefinitely
// blocked collective looks like: some peer will never
// send what the others are waiting for.
var ErrDeadlock = errors.New("deadlock: all Handles are polling")

// An EventLoop is the global scheduler for a simulated
// distributed system.
//
// Goroutines that use an EventLoop must be started with
// Go. Virtual time only advances while every such
// Goroutine is blocked in Poll, so simulated workers
// never race against real time.
type EventLoop struct {
	lock    sync.Mutex
	timers  []*Timer
	handles []*Handle

	time float64

	running  bool
	notifyCh chan struct{}
}

// NewEventLoop creates an event loop whose clock starts
// at 0.
func NewEventLoop() *EventLoop {
	return &EventLoop{notifyCh: make(chan struct{}, 1)}
}

// Stream creates a new EventStream on the loop.
func (e *EventLoop) Stream() *EventStream {
	return &EventStream{loop: e}
}

// Go runs f in a new Goroutine with its own Handle.
func (e *EventLoop) Go(f func(h *Handle)) {
	h := &Handle{EventLoop: e}
	e.lock.Lock()
	e.handles = append(e.handles, h)
	e.lock.Unlock()
	go func() {
		defer e.modifyHandles(func() {
			for i, handle := range e.handles {
				if handle == h {
					essentials.UnorderedDelete(&e.handles, i)
					return
				}
			}
			panic("cannot free handle that does not exist")
		})
		f(h)
	}()
}

// Run drives the loop until every Handle has exited.
//
// It returns ErrDeadlock if the Goroutines block forever.
// Run must not be called concurrently.
func (e *EventLoop) Run() error {
	e.lock.Lock()
	if e.running {
		e.lock.Unlock()
		panic("EventLoop is already running")
	}
	e.running = true
	e.lock.Unlock()

	defer func() {
		e.lock.Lock()
		e.running = false
		e.lock.Unlock()
	}()

	// Handles may have exited before Run was called.
	e.notify()

	for range e.notifyCh {
		if more, err := e.step(); !more {
			return err
		}
	}

	panic("unreachable")
}

// MustRun is like Run, but panics on deadlock.
func (e *EventLoop) MustRun() {
	essentials.Must(e.Run())
}

// Time gets the current virtual time.
func (e *EventLoop) Time() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.time
}

// modify runs f with the loop locked. f must not change
// which Handles are polling.
func (e *EventLoop) modify(f func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	f()
}

// modifyHandles is like modify, but f may change the
// scheduling state, so the loop is woken up afterwards.
func (e *EventLoop) modifyHandles(f func()) {
	e.lock.Lock()
	defer func() {
		e.lock.Unlock()
		e.notify()
	}()
	f()
}

func (e *EventLoop) notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
	}
}

// step delivers the next event, if every Handle is
// waiting for one.
//
// The first return value is false once the loop can no
// longer make progress.
func (e *EventLoop) step() (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.handles) == 0 {
		return false, nil
	}

	for _, h := range e.handles {
		if len(h.pollStreams) == 0 {
			// Some Goroutine is still computing.
			return true, nil
		}
	}

	for len(e.timers) > 0 {
		// Timers with equal deadlines fire in random order.
		indices := rand.Perm(len(e.timers))

		minIdx := indices[0]
		for _, i := range indices[1:] {
			if e.timers[i].time < e.timers[minIdx].time {
				minIdx = i
			}
		}
		timer := e.timers[minIdx]

		essentials.UnorderedDelete(&e.timers, minIdx)
		e.time = math.Max(e.time, timer.time)
		if e.deliver(timer.event) {
			return true, nil
		}
	}

	return false, ErrDeadlock
}

func (e *EventLoop) deliver(event *Event) bool {
	// Receivers sharing a stream are picked in random order.
	for _, i := range rand.Perm(len(e.handles)) {
		h := e.handles[i]
		for _, stream := range h.pollStreams {
			if stream == event.Stream {
				h.pollChan <- event
				h.pollChan = nil
				h.pollStreams = nil
				return true
			}
		}
	}
	event.Stream.pending = append(event.Stream.pending, event.Message)
	return false
}
