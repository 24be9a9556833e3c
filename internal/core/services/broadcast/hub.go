// Package broadcast fans state-change notifications out to subscribers.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
	"github.com/lcalzada-xor/cyberpet/internal/telemetry"
)

// DefaultSendTimeout bounds a single delivery to one subscriber.
const DefaultSendTimeout = 5 * time.Second

// Handle identifies a subscription.
type Handle uint64

// Hub holds the live subscriber set. Deliveries are sequential and a
// subscriber whose delivery fails is removed and closed.
type Hub struct {
	mu   sync.RWMutex
	subs map[Handle]ports.Subscriber
	next Handle

	// publishMu keeps per-subscriber order equal to publish order.
	publishMu   sync.Mutex
	sendTimeout time.Duration
}

// NewHub creates an empty hub. A non-positive timeout selects DefaultSendTimeout.
func NewHub(sendTimeout time.Duration) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Hub{
		subs:        make(map[Handle]ports.Subscriber),
		sendTimeout: sendTimeout,
	}
}

// Subscribe adds sub to the live set.
func (h *Hub) Subscribe(sub ports.Subscriber) Handle {
	h.mu.Lock()
	h.next++
	handle := h.next
	h.subs[handle] = sub
	n := len(h.subs)
	h.mu.Unlock()

	telemetry.Subscribers.Set(float64(n))
	slog.Info("Subscriber connected", "subscriber", sub.ID(), "total", n)
	return handle
}

// Unsubscribe removes and closes the subscription. Unknown handles are ignored.
func (h *Hub) Unsubscribe(handle Handle) {
	h.mu.Lock()
	sub, ok := h.subs[handle]
	delete(h.subs, handle)
	n := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	telemetry.Subscribers.Set(float64(n))
	if err := sub.Close(); err != nil {
		slog.Debug("Subscriber close failed", "subscriber", sub.ID(), "error", err)
	}
	slog.Info("Subscriber disconnected", "subscriber", sub.ID(), "total", n)
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers msg to every subscriber present when the call starts.
// It returns once every delivery has completed or failed.
func (h *Hub) Publish(ctx context.Context, msg domain.BroadcastMessage) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	type target struct {
		handle Handle
		sub    ports.Subscriber
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.subs))
	for handle, sub := range h.subs {
		targets = append(targets, target{handle, sub})
	}
	h.mu.RUnlock()

	for _, t := range targets {
		sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
		err := t.sub.Send(sendCtx, msg)
		cancel()

		if err != nil {
			telemetry.Deliveries.WithLabelValues(msg.Type, "dropped").Inc()
			slog.Warn("Dropping subscriber after failed delivery",
				"subscriber", t.sub.ID(), "type", msg.Type, "error", err)
			h.Unsubscribe(t.handle)
			continue
		}
		telemetry.Deliveries.WithLabelValues(msg.Type, "delivered").Inc()
	}
}

// Close removes and closes every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	handles := make([]Handle, 0, len(h.subs))
	for handle := range h.subs {
		handles = append(handles, handle)
	}
	h.mu.Unlock()

	for _, handle := range handles {
		h.Unsubscribe(handle)
	}
}
