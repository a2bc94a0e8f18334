// Package session tracks who is authenticated for one console session
// and exposes identity/session/loading to the routing layer.
package session

import (
	"context"
	"sync"

	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
)

// AuthClient is the external auth collaborator shape the store consumes.
// *auth.TokenClient satisfies it.
type AuthClient interface {
	GetCurrentSession(ctx context.Context) (*models.Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*models.Session)) func()
}

// ProfileClient fetches the durable identity record for a session.
type ProfileClient interface {
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
}

// Store holds the current authenticated identity and profile and
// notifies watchers on change. Construct with New and pass by handle;
// screens and the routing controller receive it explicitly rather than
// reaching for a global.
//
// Auth-state events may arrive while a previous handler's profile fetch
// is still pending; resolution is last-write-wins on the identity and
// session fields. No queueing, no ordering guarantee beyond "the
// listener fires after the auth state changed".
type Store struct {
	auth     AuthClient
	profiles ProfileClient

	mu       sync.RWMutex
	identity *models.Profile
	session  *models.Session
	loading  bool

	unsubOnce sync.Once
	unsub     func()

	watchers []func()
}

// New builds a store in the loading state. Call Initialize once to
// resolve the initial session and start watching for changes.
func New(auth AuthClient, profiles ProfileClient) *Store {
	if auth == nil || profiles == nil {
		panic("session: nil collaborator")
	}
	return &Store{auth: auth, profiles: profiles, loading: true}
}

// Initialize queries the auth collaborator once for an existing session,
// resolves the profile when one is present, and subscribes to auth-state
// changes. Loading is cleared on every path out, including panics in the
// collaborators.
func (s *Store) Initialize(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("session_initialize_panic", "panic", r)
		}
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
	}()

	sess, err := s.auth.GetCurrentSession(ctx)
	if err != nil {
		logger.Error("initial_session_fetch_failed", "error", err)
		sess = nil
	}
	s.resolve(ctx, sess)

	s.unsub = s.auth.Subscribe(func(changed *models.Session) {
		// re-fetch the profile the same way as Initialize; loading is
		// never toggled here
		s.resolve(context.Background(), changed)
		s.notify()
	})
}

// resolve sets session and identity from the given session, fetching the
// profile when present. A failed profile fetch degrades to an absent
// identity, never an error.
func (s *Store) resolve(ctx context.Context, sess *models.Session) {
	var ident *models.Profile
	if sess != nil {
		p, err := s.profiles.GetProfileByID(ctx, sess.UserID)
		if err != nil {
			logger.Error("profile_fetch_failed", "user", sess.UserID, "error", err)
		} else {
			ident = p
		}
	}
	s.mu.Lock()
	s.session = sess
	s.identity = ident
	s.mu.Unlock()
}

// Identity returns the current profile, or nil when unauthenticated or
// the profile fetch failed.
func (s *Store) Identity() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Session returns the current session, or nil.
func (s *Store) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Loading reports whether the initial session check is still in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Logout requests sign-out from the auth collaborator, then clears local
// state unconditionally: a failed remote call must not leave a stale
// identity behind.
func (s *Store) Logout(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	if err != nil {
		logger.Warn("signout_failed", "error", err)
	}
	s.mu.Lock()
	s.session = nil
	s.identity = nil
	s.mu.Unlock()
	s.notify()
	return err
}

// Teardown cancels the auth-state subscription. Safe to call more than
// once, and safe when Initialize never ran.
func (s *Store) Teardown() {
	s.unsubOnce.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
	})
}

// OnChange registers fn to run after every state change. Registration is
// not synchronized with Initialize; register watchers before calling it.
func (s *Store) OnChange(fn func()) {
	s.watchers = append(s.watchers, fn)
}

func (s *Store) notify() {
	for _, fn := range s.watchers {
		fn()
	}
}
