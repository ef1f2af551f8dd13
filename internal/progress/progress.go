// Package progress implements the render driver's progress monitor: a
// thread-safe accumulator for step counts, pass numbers and named timers,
// fronted by a pluggable display target. The console bar and the
// callback-delegating target are the two built-in implementations;
// additional targets plug in without touching the render driver.
package progress

import (
	"sync"
	"time"
)

// Monitor is the render driver's single logical progress sink. All methods
// are safe for concurrent use; the driver calls UpdateProgress from worker
// goroutines while a console or HTTP poller reads the accumulated state
// from another goroutine entirely.
type Monitor interface {
	SetTotalPasses(n int)
	SetCurrentPass(p int)
	InitProgress(stepsTotal int)
	UpdateProgress(delta int)
	SetTag(text string)
	Done()

	StartTimer(name string)
	StopTimer(name string)
	GetTime(name string) time.Duration
}

// state is the shared bookkeeping every Monitor implementation wraps.
type state struct {
	mu sync.Mutex

	totalPasses int
	currentPass int

	stepsTotal int
	stepsDone  int
	tag        string
	done       bool

	timers map[string]timerState
}

type timerState struct {
	started time.Time
	elapsed time.Duration
	running bool
}

func newState() *state {
	return &state{timers: make(map[string]timerState)}
}

func (s *state) setTotalPasses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalPasses = n
}

func (s *state) setCurrentPass(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPass = p
}

func (s *state) initProgress(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepsTotal = total
	s.stepsDone = 0
	s.done = false
}

func (s *state) updateProgress(delta int) (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepsDone += delta
	return s.stepsDone, s.stepsTotal
}

func (s *state) setTag(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tag = text
}

func (s *state) markDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

func (s *state) startTimer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.timers[name]
	t.started = time.Now()
	t.running = true
	s.timers[name] = t
}

func (s *state) stopTimer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[name]
	if !ok || !t.running {
		return
	}
	t.elapsed += time.Since(t.started)
	t.running = false
	s.timers[name] = t
}

func (s *state) getTime(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[name]
	if !ok {
		return 0
	}
	if t.running {
		return t.elapsed + time.Since(t.started)
	}
	return t.elapsed
}

func (s *state) snapshot() (pass, totalPasses, done, total int, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPass, s.totalPasses, s.stepsDone, s.stepsTotal, s.tag
}
