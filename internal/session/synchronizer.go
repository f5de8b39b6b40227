// Package session implements the session synchronizer: a client-side state
// machine that keeps derived auth state (session, user, profile, organization)
// consistent while sign-in and sign-out events arrive asynchronously.
//
// Two sources feed the machine: a one-shot fetch of the current session at
// activation, and the auth state change listener registered at the same time.
// The listener may fire before the initial fetch resolves, so every update
// carries a sequence number and a commit whose sequence is older than the
// last applied one is discarded. The initial fetch takes its sequence at
// request time while listener events take theirs at arrival, which makes any
// listener event newer than the initial fetch by construction — a stale
// initial response can never overwrite state derived from a later event.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leadpocket/leadpocket/internal/auth"
	"github.com/leadpocket/leadpocket/internal/db/models"
	"github.com/leadpocket/leadpocket/internal/safego"
)

// Client is the subset of the account service the synchronizer needs.
// *auth.Service satisfies it.
type Client interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	GetUserProfile(ctx context.Context, authUserID string) (*models.Profile, error)
}

// EventSource provides the auth state change feed. *auth.Broadcaster
// satisfies it.
type EventSource interface {
	Subscribe() (<-chan auth.StateChange, func())
}

// State is the derived auth state visible to consumers. Loading is true from
// activation until the initial session resolution completes, then false
// forever; subsequent auth changes are instantaneous from the consumer's
// perspective.
type State struct {
	Session      *models.Session
	UserID       string
	Profile      *models.Profile
	Organization *models.Organization
	Loading      bool
}

// SignedIn reports whether the state currently holds an authenticated user
func (s State) SignedIn() bool {
	return s.UserID != ""
}

// ErrAlreadyStarted is returned by Start when the synchronizer is already
// active. The listener must be registered exactly once per activation.
var ErrAlreadyStarted = errors.New("synchronizer already started")

// Synchronizer reconciles auth state changes into a consistent State.
type Synchronizer struct {
	client   Client
	events   EventSource
	token    string
	onChange func(State)

	mu          sync.Mutex
	active      bool
	started     bool
	seqCounter  uint64
	lastSeq     uint64
	loadingDone bool
	state       State
	unsubscribe func()
}

// New creates a synchronizer for the session identified by token. onChange,
// if non-nil, is invoked with a snapshot after every committed state change;
// it runs outside the synchronizer's lock and must not block indefinitely.
func New(client Client, events EventSource, token string, onChange func(State)) *Synchronizer {
	return &Synchronizer{
		client:   client,
		events:   events,
		token:    token,
		onChange: onChange,
		state:    State{Loading: true},
	}
}

// Start activates the synchronizer: it registers the auth state listener and
// concurrently requests the current session. Calling Start on an active
// synchronizer is an error.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.active = true

	// The initial fetch takes its sequence number now, before any listener
	// event can be assigned one. Whatever the listener delivers later is
	// therefore always newer than this fetch's response.
	s.seqCounter++
	initialSeq := s.seqCounter
	s.mu.Unlock()

	ch, unsubscribe := s.events.Subscribe()
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	safego.Go(func() { s.runInitialFetch(ctx, initialSeq) })
	safego.Go(func() { s.runEventLoop(ctx, ch) })

	return nil
}

// Close deactivates the synchronizer and unregisters the listener. Any
// in-flight profile fetch that resolves after Close commits nothing.
// Close is safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns a snapshot of the current derived state
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// runInitialFetch resolves the current session, applies it, loads the profile
// for it, and then flips Loading to false exactly once. A fetch failure is
// treated as "no session"; the consumer still leaves the loading state.
func (s *Synchronizer) runInitialFetch(ctx context.Context, seq uint64) {
	sess, err := s.client.GetSession(ctx, s.token)
	if err != nil {
		slog.Warn("initial session fetch failed", "error", err)
		sess = nil
	}

	committed, userID := s.applySession(seq, sess)
	if committed && userID != "" {
		s.loadProfile(ctx, seq, userID)
	}

	s.finishLoading()
}

// runEventLoop consumes listener events until the subscription channel is
// closed by unsubscribe. Events are processed in arrival order; each gets a
// fresh sequence number at arrival.
func (s *Synchronizer) runEventLoop(ctx context.Context, ch <-chan auth.StateChange) {
	for ev := range ch {
		s.mu.Lock()
		s.seqCounter++
		seq := s.seqCounter
		s.mu.Unlock()

		committed, userID := s.applySession(seq, ev.Session)
		if committed && userID != "" {
			s.loadProfile(ctx, seq, userID)
		}
	}
}

// applySession commits a session update. The commit is refused when the
// synchronizer is inactive or when a newer update has already been applied.
// A nil session (or one without a user) clears profile and organization in
// the same commit — consumers never observe a stale profile next to a dead
// session.
func (s *Synchronizer) applySession(seq uint64, sess *models.Session) (bool, string) {
	s.mu.Lock()
	if !s.active || seq < s.lastSeq {
		s.mu.Unlock()
		return false, ""
	}
	s.lastSeq = seq

	s.state.Session = sess
	userID := ""
	if sess != nil {
		userID = sess.IdentityID
	}
	s.state.UserID = userID
	if userID == "" {
		s.state.Profile = nil
		s.state.Organization = nil
	}

	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return true, userID
}

// loadProfile fetches the profile for userID and commits it only if the
// synchronizer is still active and the session update that triggered the
// fetch has not been superseded. A fetch failure degrades to a nil profile
// and organization; it is logged, never fatal.
func (s *Synchronizer) loadProfile(ctx context.Context, seq uint64, userID string) {
	profile, err := s.client.GetUserProfile(ctx, userID)

	s.mu.Lock()
	if !s.active || s.lastSeq != seq {
		s.mu.Unlock()
		return
	}

	if err != nil {
		slog.Warn("profile fetch failed", "user_id", userID, "error", err)
		s.state.Profile = nil
		s.state.Organization = nil
	} else {
		s.state.Profile = profile
		s.state.Organization = profile.Organization
	}

	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// finishLoading flips Loading to false. Only the first call has any effect;
// later auth changes never re-enter the loading state. Nothing is committed
// after deactivation.
func (s *Synchronizer) finishLoading() {
	s.mu.Lock()
	if !s.active || s.loadingDone {
		s.mu.Unlock()
		return
	}
	s.loadingDone = true
	s.state.Loading = false
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Synchronizer) notify(snapshot State) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}
