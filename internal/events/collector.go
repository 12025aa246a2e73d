package events

import "sync"

// Collector subscribes to a Bus and tallies events by type, so a run's
// final counts (testable properties like "PathNotFound count equals the
// count of cross-component pairs") are queryable without scraping logs.
type Collector struct {
	bus *Bus
	ch  chan Event
	wg  sync.WaitGroup

	mu     sync.Mutex
	counts map[EventType]int
}

// NewCollector subscribes a Collector to bus and starts draining it.
func NewCollector(bus *Bus) *Collector {
	c := &Collector{
		bus:    bus,
		ch:     bus.Subscribe(1000),
		counts: make(map[EventType]int),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Collector) run() {
	defer c.wg.Done()
	for evt := range c.ch {
		c.mu.Lock()
		c.counts[evt.Type]++
		c.mu.Unlock()
	}
}

// Count returns the number of events observed of the given type.
func (c *Collector) Count(t EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[t]
}

// Counts returns a snapshot of all observed counts.
func (c *Collector) Counts() map[EventType]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[EventType]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Close unsubscribes from the bus and waits for the drain goroutine to
// exit.
func (c *Collector) Close() {
	c.bus.Unsubscribe(c.ch)
	c.wg.Wait()
}
