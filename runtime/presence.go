// Package runtime owns the live, in-process state of the chat system: the
// presence directory and the supervised background workers.
package runtime

import (
	"chat-server/contract"
	"sync"
)

// Presence is the process-wide directory mapping an identity to its single
// live connection sink. A new registration for the same identity replaces
// the previous handle; the superseded connection gets no farewell push.
//
// No method performs I/O while holding the lock: mutations only enqueue a
// notification that the PresenceNotifier worker turns into the activeUsers
// broadcast.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
	notify   chan struct{}
}

func NewPresence() *Presence {
	return &Presence{
		sessions: make(map[string]contract.EventSink),
		notify:   make(chan struct{}, 1),
	}
}

func (p *Presence) Register(userID string, sink contract.EventSink) {
	p.mu.Lock()
	p.sessions[userID] = sink
	p.mu.Unlock()

	p.requestBroadcast()
}

func (p *Presence) Unregister(userID string) {
	p.mu.Lock()
	_, existed := p.sessions[userID]
	delete(p.sessions, userID)
	p.mu.Unlock()

	if existed {
		p.requestBroadcast()
	}
}

func (p *Presence) Lookup(userID string) (contract.EventSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sink, ok := p.sessions[userID]
	return sink, ok
}

func (p *Presence) ListOnline() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]string, 0, len(p.sessions))
	for userID := range p.sessions {
		online = append(online, userID)
	}
	return online
}

// Snapshot returns the online identities and their sinks in one consistent
// read, for the notifier's broadcast.
func (p *Presence) Snapshot() ([]string, []contract.EventSink) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.sessions))
	sinks := make([]contract.EventSink, 0, len(p.sessions))
	for userID, sink := range p.sessions {
		ids = append(ids, userID)
		sinks = append(sinks, sink)
	}
	return ids, sinks
}

// Notifications signals that the online list changed. Capacity one: a herd
// of changes collapses into a single pending broadcast.
func (p *Presence) Notifications() <-chan struct{} {
	return p.notify
}

func (p *Presence) requestBroadcast() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}
