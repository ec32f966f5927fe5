package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	inboxBuffer    = 64
	listenerBuffer = 16
)

// Source tells listeners where a notice came from.
type Source string

const (
	SourceRemote Source = "remote" // change feed of the hosted store
	SourceLocal  Source = "local"  // mutation made by this process
)

// Notice is a payload-less change signal. Receivers reload everything.
type Notice struct {
	Source Source    `json:"source"`
	Topic  string    `json:"topic,omitempty"`
	At     time.Time `json:"at"`
}

// Hub fans notices out to every registered listener. A listener whose buffer
// is full misses the notice; the next one triggers the same full reload.
type Hub struct {
	inbox chan Notice
	log   zerolog.Logger

	mu        sync.RWMutex
	listeners map[int]chan Notice
	nextID    int
	stopped   bool

	// OnDeliver, when set, is called once per notice after fan-out.
	OnDeliver func(n Notice, delivered, dropped int)
}

// NewHub creates a Hub. Call Start before publishing.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		inbox:     make(chan Notice, inboxBuffer),
		log:       log,
		listeners: make(map[int]chan Notice),
	}
}

// Start launches the fan-out goroutine. It stops when ctx is cancelled and
// closes every listener channel on the way out.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

// Publish queues n without blocking. Notices published while the inbox is
// full are dropped.
func (h *Hub) Publish(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	select {
	case h.inbox <- n:
	default:
		h.log.Warn().Str("source", string(n.Source)).Msg("realtime inbox full, notice dropped")
	}
}

// Notifier returns a payload-less callback suitable for Store.SubscribeToChanges.
func (h *Hub) Notifier(source Source) func() {
	return func() { h.Publish(Notice{Source: source}) }
}

// Subscribe registers a listener. The returned func unregisters it and closes
// the channel. Once the hub has stopped the channel comes back already closed.
func (h *Hub) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, listenerBuffer)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.listeners[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.listeners[id]; ok {
				delete(h.listeners, id)
				close(ch)
			}
		})
	}
}

// Listeners returns the number of registered listeners.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case n := <-h.inbox:
			h.fanOut(n)
		}
	}
}

func (h *Hub) fanOut(n Notice) {
	h.mu.RLock()
	delivered, dropped := 0, 0
	for id, ch := range h.listeners {
		select {
		case ch <- n:
			delivered++
		default:
			dropped++
			h.log.Debug().Int("listener_id", id).Msg("listener busy, notice dropped")
		}
	}
	h.mu.RUnlock()

	if h.OnDeliver != nil {
		h.OnDeliver(n, delivered, dropped)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id, ch := range h.listeners {
		close(ch)
		delete(h.listeners, id)
	}
}
