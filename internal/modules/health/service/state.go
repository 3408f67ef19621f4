package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status: то, что сканер отдаёт в /healthz.
type Status struct {
	Active    bool   `json:"active"`
	LastCycle string `json:"lastCycle,omitempty"`
	Sent      int    `json:"lastCycleSent"`
}

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastCycleUnix atomic.Int64 // unix seconds

	mu     sync.RWMutex
	status func() Status
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchCycle(t time.Time) { s.lastCycleUnix.Store(t.Unix()) }
func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) SetStatus(fn func() Status) {
	s.mu.Lock()
	s.status = fn
	s.mu.Unlock()
}

func (s *State) Status() Status {
	s.mu.RLock()
	fn := s.status
	s.mu.RUnlock()
	if fn == nil {
		return Status{}
	}
	return fn()
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
