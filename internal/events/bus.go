package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/routectl/routectl/internal/metrics"
)

// Bus is a non-blocking event bus that fans out events to subscribers.
//
// A single routectl run publishes two very different volumes of event:
// at most a handful of EventRunStateChanged transitions (one per stage
// of Idle -> Updating -> Computing -> Compiling -> Installing -> Idle),
// and up to O(hosts^2) diagnostic events (DistanceUnknown, PathNotFound,
// PortUnknown, InstallRejected, ControllerUnreachable) — one potentially
// per host pair or install batch. The diagnostic volume can legitimately
// blow past any fixed buffer size on a large topology with poor
// connectivity; state transitions never can. So the two get different
// delivery guarantees: a state transition is delivered even if it has
// to wait briefly for room, since losing one breaks the orchestrator's
// run visibility, while diagnostic events are dropped under backpressure
// like any other high-volume telemetry, with every drop still counted.
type Bus struct {
	ch          chan Event
	subscribers []chan Event
	mu          sync.RWMutex
	logger      *slog.Logger
	bufferSize  int
	drops       uint64
	dropsMu     sync.Mutex
	done        chan struct{}
}

// criticalSendWait bounds how long a guaranteed-delivery event (state
// transitions) will wait for buffer room before falling back to the
// same drop-and-count path as diagnostic events. It exists only to
// stop a stuck consumer from hanging the orchestrator forever.
const criticalSendWait = 2 * time.Second

// NewBus creates a new event bus with the given buffer size.
func NewBus(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Bus{
		ch:         make(chan Event, bufferSize),
		logger:     logger,
		bufferSize: bufferSize,
		done:       make(chan struct{}),
	}
}

// Start begins dispatching events to subscribers. Call in a goroutine.
func (b *Bus) Start() {
	for {
		select {
		case evt, ok := <-b.ch:
			if !ok {
				return
			}
			b.dispatch(evt)
		case <-b.done:
			return
		}
	}
}

// dispatch fans evt out to every subscriber. State transitions get a
// bounded blocking send so a momentarily-busy subscriber (e.g. the
// status API's collector) doesn't miss one; every other event type is
// dropped immediately on a full subscriber channel, same as before.
func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if evt.Type == EventRunStateChanged {
			select {
			case sub <- evt:
			case <-time.After(criticalSendWait):
				b.logger.Warn("subscriber event buffer full, dropping run state transition",
					"event_type", string(evt.Type))
			}
			continue
		}
		select {
		case sub <- evt:
		default:
			b.logger.Warn("subscriber event buffer full, dropping event",
				"event_type", string(evt.Type))
		}
	}
}

// Stop shuts down the event bus.
func (b *Bus) Stop() {
	close(b.done)
	close(b.ch)
}

// Publish sends an event to the bus. State transitions block briefly
// for room rather than dropping; every other event type is dropped
// immediately if the buffer is full, since diagnostic events can
// arrive in numbers proportional to the topology's host count.
func (b *Bus) Publish(evt Event) {
	metrics.EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	if evt.Type == EventRunStateChanged {
		select {
		case b.ch <- evt:
			return
		case <-time.After(criticalSendWait):
		}
	} else {
		select {
		case b.ch <- evt:
			return
		default:
		}
	}

	b.dropsMu.Lock()
	b.drops++
	total := b.drops
	b.dropsMu.Unlock()
	metrics.EventBufferDrops.Inc()
	b.logger.Warn("event bus buffer full, dropping event",
		"event_type", string(evt.Type),
		"total_drops", total)
}

// Subscribe returns a new channel that receives all events from the bus.
// The caller should read from the channel to avoid blocking.
func (b *Bus) Subscribe(bufferSize int) chan Event {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	ch := make(chan Event, bufferSize)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel from the bus.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Drops returns the total number of dropped events.
func (b *Bus) Drops() uint64 {
	b.dropsMu.Lock()
	defer b.dropsMu.Unlock()
	return b.drops
}
