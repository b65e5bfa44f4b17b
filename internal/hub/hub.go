// Package hub fans composed snapshots out to registered subscribers.
package hub

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/statushub/statushub/internal/status"
)

// Subscriber accepts snapshots and error notifications. Implementations
// must not assume they are the only subscriber; a snapshot is shared and
// must not be mutated.
type Subscriber interface {
	Accept(snap *status.Snapshot)
	AcceptError(err error)
}

// Funcs adapts plain callbacks to the Subscriber interface. Nil callbacks
// are skipped.
type Funcs struct {
	OnSnapshot func(snap *status.Snapshot)
	OnError    func(err error)
}

func (f Funcs) Accept(snap *status.Snapshot) {
	if f.OnSnapshot != nil {
		f.OnSnapshot(snap)
	}
}

func (f Funcs) AcceptError(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

// Handle identifies one subscription
type Handle = uuid.UUID

// Hub holds the subscriber set and delivers each snapshot to all of them.
// A subscriber that panics during delivery is isolated: the panic is logged
// and delivery continues with the remaining subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[Handle]Subscriber

	// publishMu serializes publishes so subscribers observe snapshots in
	// composition order
	publishMu sync.Mutex

	logger *slog.Logger
}

// New creates an empty hub
func New(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[Handle]Subscriber),
		logger: logger.With("component", "hub"),
	}
}

// Subscribe registers a subscriber and returns its handle. A subscriber
// added after N publishes only sees publish N+1 onward.
func (h *Hub) Subscribe(sub Subscriber) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle := uuid.New()
	h.subs[handle] = sub

	h.logger.Debug("subscriber added", "handle", handle, "count", len(h.subs))
	return handle
}

// Unsubscribe removes a subscription. Safe to call concurrently with an
// in-flight publish; the publish works on its own copy of the set.
func (h *Hub) Unsubscribe(handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, handle)
	h.logger.Debug("subscriber removed", "handle", handle, "count", len(h.subs))
}

// Len returns the current subscriber count
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers the snapshot to every currently registered subscriber
func (h *Hub) Publish(snap *status.Snapshot) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	for handle, sub := range h.snapshotSubs() {
		h.deliver(handle, sub, snap, nil)
	}
}

// PublishError notifies every subscriber of a cycle-level error
func (h *Hub) PublishError(err error) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	for handle, sub := range h.snapshotSubs() {
		h.deliver(handle, sub, nil, err)
	}
}

// snapshotSubs copies the subscriber set so (un)subscribe cannot
// invalidate iteration mid-publish
func (h *Hub) snapshotSubs() map[Handle]Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make(map[Handle]Subscriber, len(h.subs))
	for handle, sub := range h.subs {
		subs[handle] = sub
	}
	return subs
}

func (h *Hub) deliver(handle Handle, sub Subscriber, snap *status.Snapshot, cycleErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("subscriber delivery failed",
				"handle", handle,
				"panic", rec,
			)
		}
	}()

	if cycleErr != nil {
		sub.AcceptError(cycleErr)
		return
	}
	sub.Accept(snap)
}
