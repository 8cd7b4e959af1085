package sim

import (
	"log/slog"
	"sync"
	"time"
)

// Runner drives the simulation forward on wall-clock time. The simulation
// itself stays single-threaded: each loop iteration calls Step once under
// the runner's lock. Other goroutines access the simulation through Do.
type Runner struct {
	Sim      *Simulation
	Interval time.Duration // base tick interval (default 1 second)

	// OnDay fires after any step that crosses one or more day boundaries,
	// with the latest completed day. Called under the runner's lock.
	OnDay func(day int)

	mu      sync.Mutex
	running bool
}

// NewRunner creates a runner with default settings.
func NewRunner(s *Simulation) *Runner {
	return &Runner{Sim: s, Interval: time.Second}
}

// Do runs fn with exclusive access to the simulation. HTTP handlers and
// other goroutines must use this instead of touching Sim directly.
func (r *Runner) Do(fn func(s *Simulation)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.Sim)
}

// Running reports whether the loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Run starts the loop. Blocks until Stop is called.
func (r *Runner) Run() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	slog.Info("simulation started", "time", r.Sim.Clock.Now(), "scale", r.Sim.Clock.Scale())

	for {
		start := time.Now()

		r.mu.Lock()
		if !r.running {
			r.mu.Unlock()
			break
		}
		dayBefore := r.Sim.Clock.Day()
		r.Sim.Step(r.Interval.Seconds())
		dayAfter := r.Sim.Clock.Day()
		if dayAfter > dayBefore && r.OnDay != nil {
			r.OnDay(dayAfter)
		}
		r.mu.Unlock()

		elapsed := time.Since(start)
		if elapsed < r.Interval {
			time.Sleep(r.Interval - elapsed)
		}
	}

	slog.Info("simulation stopped", "time", r.Sim.Clock.Now())
}

// Stop halts the loop after the current iteration.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}
