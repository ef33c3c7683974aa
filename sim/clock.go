package sim

import (
	"sync"
	"time"
)

// Clock provides the stream time of the simulated devices.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when advanced, which makes packet generation
// deterministic in tests.
type ManualClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

// SetStep makes every reading advance the clock by d, so that a polling
// consumer sees the stream progress at a fixed pace per poll.
func (c *ManualClock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
