// Package sim is the discrete-event kernel of the simulator. A Simulation
// owns a priority queue of scheduled events and a set of registered
// handlers; Step pops the earliest event and delivers it to the destination
// handler, which runs to completion before the next dispatch. Simulation
// time advances only at dispatch, so all waiting is modeled by
// self-scheduled timer events.
package sim

import (
	"fmt"
	"math/rand"
)

// ID is a dense handle assigned to a context at registration time.
type ID uint32

// Event carries a payload between two contexts. Data is one of the payload
// structs dispatched by a type switch at the handler boundary.
type Event struct {
	Seq  uint64
	Time float64
	Src  ID
	Dst  ID
	Data any
}

// Handler consumes events addressed to its context.
type Handler interface {
	OnEvent(ev Event)
}

// Simulation is single-threaded and cooperative; nothing in it is safe for
// concurrent use.
type Simulation struct {
	clock    float64
	queue    eventQueue
	handlers []Handler
	names    []string
	root     *rand.Rand
	nextSeq  uint64

	// queue accounting, surfaced by Stats
	enqueued   uint64
	dispatched uint64
}

// QueueStats reports kernel-level event accounting.
type QueueStats struct {
	Enqueued   uint64
	Dispatched uint64
	Pending    int
}

// New creates a simulation whose RNG streams all derive from seed.
func New(seed uint64) *Simulation {
	return &Simulation{
		root: rand.New(rand.NewSource(int64(seed))),
	}
}

// CreateContext registers a named context and returns it. The context owns
// a dedicated RNG stream seeded from the root RNG, so context creation
// order fully determines the sequence of random draws.
func (s *Simulation) CreateContext(name string) *Context {
	id := ID(len(s.handlers))
	s.handlers = append(s.handlers, nil)
	s.names = append(s.names, name)
	return &Context{
		sim: s,
		id:  id,
		rng: rand.New(rand.NewSource(s.root.Int63())),
	}
}

// AddHandler binds the handler that will receive events addressed to id.
func (s *Simulation) AddHandler(id ID, h Handler) {
	s.handlers[id] = h
}

// Name returns the name the context was registered under.
func (s *Simulation) Name(id ID) string {
	return s.names[id]
}

// Time returns the current simulation time.
func (s *Simulation) Time() float64 {
	return s.clock
}

// Stats returns kernel event accounting.
func (s *Simulation) Stats() QueueStats {
	return QueueStats{
		Enqueued:   s.enqueued,
		Dispatched: s.dispatched,
		Pending:    s.queue.Len(),
	}
}

func (s *Simulation) emit(data any, src, dst ID, delay float64) {
	if delay < 0 {
		panic(fmt.Sprintf("sim: negative delay %v from %q", delay, s.names[src]))
	}
	s.nextSeq++
	s.enqueued++
	s.queue.push(&Event{
		Seq:  s.nextSeq,
		Time: s.clock + delay,
		Src:  src,
		Dst:  dst,
		Data: data,
	})
}

// Step dispatches the earliest pending event. It returns false when the
// queue is empty.
func (s *Simulation) Step() bool {
	ev := s.queue.pop()
	if ev == nil {
		return false
	}
	s.clock = ev.Time
	s.dispatched++
	if h := s.handlers[ev.Dst]; h != nil {
		h.OnEvent(*ev)
	}
	return true
}

// StepUntilNoEvents runs the simulation to quiescence.
func (s *Simulation) StepUntilNoEvents() {
	for s.Step() {
	}
}

// StepUntilTime dispatches every event scheduled at or before t, then
// advances the clock to t.
func (s *Simulation) StepUntilTime(t float64) {
	for {
		next := s.queue.peek()
		if next == nil || next.Time > t {
			break
		}
		s.Step()
	}
	if s.clock < t {
		s.clock = t
	}
}
