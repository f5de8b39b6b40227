// events.go implements the auth state change broadcaster. The account service
// publishes an event on every sign-in and sign-out; the session synchronizer
// subscribes to keep its derived state current.
package auth

import (
	"log/slog"
	"sync"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

// Auth state change event kinds.
const (
	EventSignedIn  = "SIGNED_IN"
	EventSignedOut = "SIGNED_OUT"
)

// StateChange describes one auth state transition. Session is nil for
// sign-out events; subscribers treat a nil session exactly like a session
// whose user is gone.
type StateChange struct {
	Event      string
	Session    *models.Session
	IdentityID string
	Email      string
}

// Broadcaster fans auth state changes out to subscribers. Publishing never
// blocks: a subscriber that cannot keep up has the event dropped, because a
// newer event always supersedes the one it missed.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan StateChange]struct{}
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan StateChange]struct{}),
	}
}

// Subscribe registers a listener and returns its event channel plus an
// unsubscribe function. The unsubscribe function is safe to call more than
// once; only the first call has any effect.
func (b *Broadcaster) Subscribe() (<-chan StateChange, func()) {
	ch := make(chan StateChange, 8)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Publish delivers the event to every current subscriber
func (b *Broadcaster) Publish(change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- change:
		default:
			slog.Warn("auth event dropped for slow subscriber", "event", change.Event)
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
