package service

import "sync"

// CycleSet: символы, по которым в текущем цикле уже была попытка отправки
// не-слабого сетапа. Живёт один цикл.
type CycleSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewCycleSet() *CycleSet {
	return &CycleSet{seen: make(map[string]struct{})}
}

func (c *CycleSet) Reset() {
	c.mu.Lock()
	c.seen = make(map[string]struct{})
	c.mu.Unlock()
}

func (c *CycleSet) Add(symbol string) {
	c.mu.Lock()
	c.seen[symbol] = struct{}{}
	c.mu.Unlock()
}

func (c *CycleSet) Has(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[symbol]
	return ok
}

func (c *CycleSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
