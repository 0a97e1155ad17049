package testutil

import "sync"

// CallCounter counts calls by name. Tests wrap a collaborator with it to
// observe whether a cache fell through.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CallCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCallCounter creates a counter with every count at 0.
func NewCallCounter() *CallCounter {
	return &CallCounter{counts: make(map[string]int)}
}

// Inc records one call of name.
func (c *CallCounter) Inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
}

// Count returns the calls recorded for name.
func (c *CallCounter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Reset sets every count back to 0.
func (c *CallCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
}
