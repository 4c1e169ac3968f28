// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify provides the in-process "configuration changed" signal.
// Independent parts of the server subscribe without holding references to
// each other; nothing is delivered across processes.
package notify

import "sync"

// Notifier broadcasts a zero-payload event to every registered handler.
// It is safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []registration
}

type registration struct {
	id uint64
	fn func()
}

// New creates a Notifier with no subscribers.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn to run once per Notify call. The returned function
// removes exactly this registration; calling it again is a no-op.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.handlers = append(n.handlers, registration{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

// Notify runs every handler registered at the time of the call, in
// subscription order, on the caller's goroutine.
func (n *Notifier) Notify() {
	n.mu.Lock()
	snapshot := make([]registration, len(n.handlers))
	copy(snapshot, n.handlers)
	n.mu.Unlock()

	for _, r := range snapshot {
		r.fn()
	}
}

// Len returns the number of live registrations.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, r := range n.handlers {
		if r.id == id {
			n.handlers = append(n.handlers[:i:i], n.handlers[i+1:]...)
			return
		}
	}
}
