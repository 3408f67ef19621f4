package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// Control: флаг активности сканера. Меняется командами /start и /stop,
// читается оркестратором между активами.
type Control struct {
	active atomic.Bool

	mu   sync.RWMutex
	last CycleReport
}

func NewControl(active bool) *Control {
	c := &Control{}
	c.active.Store(active)
	return c
}

func (c *Control) Activate()    { c.active.Store(true) }
func (c *Control) Pause()       { c.active.Store(false) }
func (c *Control) Active() bool { return c.active.Load() }

// Status: снимок для /status и /healthz.
type Status struct {
	Active    bool
	LastCycle CycleReport
}

func (c *Control) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{Active: c.Active(), LastCycle: c.last}
}

func (c *Control) recordCycle(r CycleReport) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}

// LastCycleAt: когда завершился последний цикл (zero, если ещё не было).
func (c *Control) LastCycleAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last.FinishedAt
}
