package engine

import (
	"sync"
	"sync/atomic"
)

// TraceKind names what happened during a pull.
type TraceKind string

const (
	TraceBind  TraceKind = "bind"  // a clause bound an element
	TraceGuard TraceKind = "guard" // the guard was evaluated
	TraceMap   TraceKind = "map"   // the mapper was evaluated
	TraceYield TraceKind = "yield" // a value left the pipeline
)

// TraceEvent records one evaluation step. Seq is a logical clock, so two
// runs of the same program over the same data produce identical traces.
type TraceEvent struct {
	Seq   int64     `json:"seq"`
	Kind  TraceKind `json:"kind"`
	Depth int       `json:"depth"`
	Expr  string    `json:"expr,omitempty"`
	Value any       `json:"value"`
}

// Tracer receives trace events in evaluation order.
type Tracer interface {
	Trace(TraceEvent)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(TraceEvent)

func (f TracerFunc) Trace(e TraceEvent) { f(e) }

// Recorder is a Tracer that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (r *Recorder) Trace(e TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of recorded events of kind.
func (r *Recorder) Count(kind TraceKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Clock is a monotonic logical clock for trace sequencing. It never uses
// wall-clock time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the clock value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
