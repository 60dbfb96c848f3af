package relay

import (
	"context"
	"errors"
	"sync"
)

// Completion tags emitted by the processor SDK, one namespace per
// presentation method.
const (
	TagCompleted = "completed"
	TagCanceled  = "canceled"
	TagFailed    = "failed"
)

// Event is a completion notification for one presentation attempt.
type Event struct {
	Method string
	Tag    string
	Reason string
}

// ErrTicketClosed is returned by Wait when the ticket was closed before an
// event arrived.
var ErrTicketClosed = errors.New("relay: ticket closed")

// Ticket is an awaitable future for a single completion event. Each ticket
// receives at most one event; Close deregisters it from the hub so a
// discarded controller never leaves a listener behind.
type Ticket struct {
	hub    *Hub
	method string
	ch     chan Event

	mu        sync.Mutex
	delivered bool
	closed    bool
}

// Wait blocks until the event arrives, the ticket is closed, or the context
// is done.
func (t *Ticket) Wait(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-t.ch:
		if !ok {
			return Event{}, ErrTicketClosed
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close deregisters the ticket. Safe to call multiple times and after
// delivery; a buffered, undelivered event is discarded.
func (t *Ticket) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	alreadyDelivered := t.delivered
	t.mu.Unlock()

	t.hub.remove(t.method, t)
	if !alreadyDelivered {
		close(t.ch)
	}
}

// deliver hands the event to the ticket exactly once.
func (t *Ticket) deliver(ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.delivered || t.closed {
		return false
	}
	t.delivered = true
	t.ch <- ev
	return true
}

// Hub routes SDK completion events to per-attempt tickets. Tickets are
// registered before the intent request is made so an early completion event
// cannot be lost.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]*Ticket
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*Ticket)}
}

// Subscribe registers a ticket for the method's event namespace.
func (h *Hub) Subscribe(method string) *Ticket {
	t := &Ticket{
		hub:    h,
		method: method,
		ch:     make(chan Event, 1),
	}
	h.mu.Lock()
	h.subs[method] = append(h.subs[method], t)
	h.mu.Unlock()
	return t
}

// Emit delivers the event to every live ticket in the method's namespace
// and reports how many tickets received it.
func (h *Hub) Emit(ev Event) int {
	h.mu.Lock()
	tickets := make([]*Ticket, len(h.subs[ev.Method]))
	copy(tickets, h.subs[ev.Method])
	h.mu.Unlock()

	delivered := 0
	for _, t := range tickets {
		if t.deliver(ev) {
			delivered++
		}
	}
	return delivered
}

// Subscribers reports the number of registered tickets for a method.
func (h *Hub) Subscribers(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[method])
}

func (h *Hub) remove(method string, ticket *Ticket) {
	h.mu.Lock()
	defer h.mu.Unlock()
	live := h.subs[method][:0]
	for _, t := range h.subs[method] {
		if t != ticket {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		delete(h.subs, method)
	} else {
		h.subs[method] = live
	}
}
