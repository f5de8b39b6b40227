package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leadpocket/leadpocket/internal/auth"
	"github.com/leadpocket/leadpocket/internal/db/models"
)

// fakeClient is a controllable account service. Gates, when set, block the
// corresponding call until closed so tests can order resolutions precisely.
type fakeClient struct {
	mu           sync.Mutex
	session      *models.Session
	sessionErr   error
	profile      *models.Profile
	profileErr   error
	sessionGate  chan struct{}
	profileGate  chan struct{}
	profileCalls int32
}

func (f *fakeClient) GetSession(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	gate := f.sessionGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeClient) GetUserProfile(ctx context.Context, authUserID string) (*models.Profile, error) {
	atomic.AddInt32(&f.profileCalls, 1)
	f.mu.Lock()
	gate := f.profileGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, f.profileErr
}

func (f *fakeClient) profileCallCount() int32 {
	return atomic.LoadInt32(&f.profileCalls)
}

// recorder captures every committed snapshot in order
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshots() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func liveSession(identityID string) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:         "sess-" + identityID,
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
}

func profileFor(identityID string) *models.Profile {
	return &models.Profile{
		ID:             "prof-1",
		Email:          "owner@acme.example",
		FullName:       "Acme Owner",
		OrganizationID: "org-1",
		AuthUserID:     identityID,
		Role:           models.RoleAdmin,
		Organization: &models.Organization{
			ID:               "org-1",
			Name:             "Acme Blinds",
			SubscriptionPlan: "starter",
		},
	}
}

func TestInitialFetchSignedIn(t *testing.T) {
	client := &fakeClient{
		session: liveSession("id-1"),
		profile: profileFor("id-1"),
	}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "initial load to settle", func() bool {
		st := syn.State()
		return !st.Loading && st.Profile != nil
	})

	st := syn.State()
	if !st.SignedIn() {
		t.Error("expected signed-in state after initial fetch")
	}
	if st.UserID != "id-1" {
		t.Errorf("UserID = %q, want %q", st.UserID, "id-1")
	}
	if st.Organization == nil || st.Organization.Name != "Acme Blinds" {
		t.Errorf("Organization = %+v, want Acme Blinds", st.Organization)
	}
}

func TestInitialFetchNoSession(t *testing.T) {
	client := &fakeClient{}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	st := syn.State()
	if st.SignedIn() {
		t.Error("expected signed-out state")
	}
	if st.Profile != nil || st.Organization != nil {
		t.Error("expected nil profile and organization without a session")
	}
	if n := client.profileCallCount(); n != 0 {
		t.Errorf("profile fetched %d times without a user", n)
	}
}

func TestInitialFetchErrorTreatedAsSignedOut(t *testing.T) {
	client := &fakeClient{sessionErr: errors.New("connection refused")}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	if syn.State().SignedIn() {
		t.Error("fetch failure must resolve to signed-out, not hang or sign in")
	}
}

func TestStaleInitialFetchDoesNotOverwriteSignOut(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{
		session:     liveSession("id-1"),
		sessionGate: gate,
	}
	broadcaster := auth.NewBroadcaster()
	rec := &recorder{}
	syn := New(client, broadcaster, "token", rec.record)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The sign-out event arrives while the initial fetch is still blocked.
	broadcaster.Publish(auth.StateChange{Event: auth.EventSignedOut})
	waitFor(t, "sign-out event commit", func() bool {
		return rec.count() >= 1
	})

	// The initial fetch now resolves with a live session, but its sequence
	// number predates the sign-out commit.
	close(gate)
	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	st := syn.State()
	if st.SignedIn() || st.Session != nil {
		t.Errorf("stale initial fetch overwrote sign-out: %+v", st)
	}
	if n := client.profileCallCount(); n != 0 {
		t.Errorf("profile fetched %d times after discarded session commit", n)
	}
}

func TestSignInEventLoadsProfile(t *testing.T) {
	client := &fakeClient{profile: profileFor("id-1")}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	broadcaster.Publish(auth.StateChange{
		Event:      auth.EventSignedIn,
		Session:    liveSession("id-1"),
		IdentityID: "id-1",
	})

	waitFor(t, "profile to load", func() bool {
		return syn.State().Profile != nil
	})

	st := syn.State()
	if st.UserID != "id-1" {
		t.Errorf("UserID = %q, want %q", st.UserID, "id-1")
	}
	if st.Organization == nil || st.Organization.ID != "org-1" {
		t.Errorf("Organization = %+v, want org-1", st.Organization)
	}
	if st.Loading {
		t.Error("loading must stay false after the initial resolution")
	}
}

func TestSignOutClearsProfileAndOrganizationAtomically(t *testing.T) {
	client := &fakeClient{
		session: liveSession("id-1"),
		profile: profileFor("id-1"),
	}
	broadcaster := auth.NewBroadcaster()
	rec := &recorder{}
	syn := New(client, broadcaster, "token", rec.record)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "initial load to settle", func() bool {
		st := syn.State()
		return !st.Loading && st.Profile != nil
	})

	broadcaster.Publish(auth.StateChange{Event: auth.EventSignedOut})
	waitFor(t, "sign-out to apply", func() bool {
		return syn.State().Session == nil
	})

	// Every observed snapshot must be internally consistent: no snapshot may
	// pair a dead session with a lingering profile or organization.
	for i, st := range rec.snapshots() {
		if st.Session == nil && (st.Profile != nil || st.Organization != nil || st.UserID != "") {
			t.Errorf("snapshot %d pairs a nil session with stale user state: %+v", i, st)
		}
	}
}

func TestCloseDuringProfileFetchCommitsNothing(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{
		session:     liveSession("id-1"),
		profile:     profileFor("id-1"),
		profileGate: gate,
	}
	broadcaster := auth.NewBroadcaster()
	rec := &recorder{}
	syn := New(client, broadcaster, "token", rec.record)

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "profile fetch to start", func() bool {
		return client.profileCallCount() == 1
	})

	syn.Close()
	committed := rec.count()
	close(gate)

	// Give the in-flight fetch time to resolve; it must not commit.
	time.Sleep(50 * time.Millisecond)
	if got := rec.count(); got != committed {
		t.Errorf("state changed after teardown: %d commits before, %d after", committed, got)
	}
	if st := syn.State(); st.Profile != nil {
		t.Errorf("profile committed after teardown: %+v", st.Profile)
	}
}

func TestProfileFetchFailureDegradesToNil(t *testing.T) {
	client := &fakeClient{
		session:    liveSession("id-1"),
		profileErr: errors.New("profile not found"),
	}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	st := syn.State()
	if !st.SignedIn() {
		t.Error("a failed profile fetch must not tear down the session")
	}
	if st.Profile != nil || st.Organization != nil {
		t.Errorf("expected nil profile and organization on fetch failure, got %+v", st)
	}
}

func TestStartTwiceFails(t *testing.T) {
	client := &fakeClient{}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := syn.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := &fakeClient{}
	broadcaster := auth.NewBroadcaster()
	syn := New(client, broadcaster, "token", nil)

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	syn.Close()
	syn.Close()

	if n := broadcaster.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d after close, want 0", n)
	}
}

func TestLoadingFlipsExactlyOnce(t *testing.T) {
	client := &fakeClient{profile: profileFor("id-1")}
	broadcaster := auth.NewBroadcaster()
	rec := &recorder{}
	syn := New(client, broadcaster, "token", rec.record)
	defer syn.Close()

	if err := syn.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "loading to finish", func() bool {
		return !syn.State().Loading
	})

	broadcaster.Publish(auth.StateChange{
		Event:      auth.EventSignedIn,
		Session:    liveSession("id-1"),
		IdentityID: "id-1",
	})
	waitFor(t, "profile to load", func() bool {
		return syn.State().Profile != nil
	})

	sawDone := false
	for i, st := range rec.snapshots() {
		if !st.Loading {
			sawDone = true
		} else if sawDone {
			t.Errorf("snapshot %d re-entered loading after it finished", i)
		}
	}
	if !sawDone {
		t.Error("loading never finished")
	}
}
