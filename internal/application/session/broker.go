// internal/application/session/broker.go
package session

import (
	"log"
	"strings"
	"sync"

	uc "tcon/internal/application/usecase"
)

// AuthBroker fans identity-state transitions out to per-session subscribers.
// The HTTP auth middleware publishes sign-in/sign-out; checkout workflows
// subscribe. It implements usecase.IdentityWatcher.
//
// Delivery: the current state is replayed on subscribe, then transitions.
// Repeated publishes of an unchanged state are dropped.
type AuthBroker struct {
	mu sync.Mutex

	states map[string]uc.AuthState
	subs   map[string]map[int]chan uc.AuthState
	nextID int
}

func NewAuthBroker() *AuthBroker {
	return &AuthBroker{
		states: map[string]uc.AuthState{},
		subs:   map[string]map[int]chan uc.AuthState{},
	}
}

// Publish records the session's identity state and notifies subscribers.
// Slow subscribers are skipped rather than blocking the publisher.
func (b *AuthBroker) Publish(sessionID string, st uc.AuthState) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return
	}
	if !st.SignedIn {
		st.UID = ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.states[sid]; ok && cur == st {
		return
	}
	b.states[sid] = st

	for id, ch := range b.subs[sid] {
		select {
		case ch <- st:
		default:
			log.Printf("[session] WARN: dropping auth event for slow subscriber session=%s sub=%d", sid, id)
		}
	}
}

// Subscribe registers a subscriber for sessionID. The returned cancel func is
// idempotent and closes the event channel.
func (b *AuthBroker) Subscribe(sessionID string) (<-chan uc.AuthState, func()) {
	sid := strings.TrimSpace(sessionID)

	ch := make(chan uc.AuthState, 8)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[sid] == nil {
		b.subs[sid] = map[int]chan uc.AuthState{}
	}
	b.subs[sid][id] = ch
	// replay current state (signed-out by default)
	ch <- b.states[sid]
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if m, ok := b.subs[sid]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(b.subs, sid)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
