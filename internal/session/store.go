// Package session tracks the current user and authentication flag,
// synchronized with the remote auth provider's session and its
// change-notification stream.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/core"
)

// ErrProfileCreateFailed reports that sign-up created an auth identity but
// the profile row could not be written; the identity has been signed out
// again by the time callers see this error.
var ErrProfileCreateFailed = errors.New("profile creation failed")

// profileFetchTimeout bounds the profile lookup triggered by an
// asynchronous auth event, which carries no caller context.
const profileFetchTimeout = 10 * time.Second

// Store is the session/auth state machine: Unauthenticated or
// Authenticated with a current user.
//
// Public operations are serialized; at most one auth operation is in
// flight per store instance.
type Store struct {
	auth     backend.AuthProvider
	profiles backend.ProfileStore

	opMu sync.Mutex // serializes SignIn/SignUp/SignOut

	mu            sync.RWMutex
	user          core.User
	authenticated bool

	release func()
	done    chan struct{}
}

// New builds the store, probes the provider for an existing session and
// starts consuming auth events. Callers must Close the store to release
// the subscription.
func New(ctx context.Context, auth backend.AuthProvider, profiles backend.ProfileStore) (*Store, error) {
	s := &Store{
		auth:     auth,
		profiles: profiles,
		done:     make(chan struct{}),
	}

	// Startup probe: restore an existing session if the provider has one.
	if sess, err := auth.CurrentSession(ctx); err == nil {
		if user, err := profiles.ProfileByID(ctx, sess.UserID); err == nil {
			s.setUser(user)
		} else {
			slog.Warn("Session restore found no profile, staying unauthenticated",
				"user_id", sess.UserID, "error", err)
		}
	} else if !errors.Is(err, backend.ErrNoSession) {
		slog.Warn("Session probe failed, staying unauthenticated", "error", err)
	}

	events, release, err := auth.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe to auth events: %w", err)
	}
	s.release = release
	go s.listen(events)

	return s, nil
}

// SignIn verifies credentials with the provider and loads the profile row
// for the session identity. Failures keep the store Unauthenticated and
// carry one of the backend auth error classes.
func (s *Store) SignIn(ctx context.Context, email, password string) (core.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.profiles.ProfileByID(ctx, sess.UserID)
	if err != nil {
		// The identity authenticated but has no profile row. Sign the
		// provider session out again so store and provider agree.
		if signOutErr := s.auth.SignOut(ctx); signOutErr != nil {
			slog.Error("Sign-out after missing profile failed", "error", signOutErr)
		}
		return core.User{}, err
	}

	s.setUser(user)
	return user, nil
}

// SignUp registers a new account: it rejects emails that already have a
// profile, creates the auth identity, then the profile row. If the
// profile write fails the identity is signed out again (compensating
// action) and ErrProfileCreateFailed is returned.
//
// The existence check and identity creation are two separate remote
// calls; a concurrent registration of the same email between them is
// caught by the provider's own uniqueness guarantee, not by this store.
func (s *Store) SignUp(ctx context.Context, username, email, password string) (core.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	_, err := s.profiles.ProfileByEmail(ctx, email)
	if err == nil {
		return core.User{}, backend.ErrAlreadyRegistered
	}
	if !errors.Is(err, backend.ErrUserNotFound) {
		return core.User{}, err
	}

	sess, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return core.User{}, err
	}

	user := core.User{ID: sess.UserID, Username: username, Email: sess.Email}
	if err := s.profiles.CreateProfile(ctx, user); err != nil {
		if signOutErr := s.auth.SignOut(ctx); signOutErr != nil {
			slog.Error("Compensating sign-out failed after profile creation error",
				"user_id", sess.UserID, "error", signOutErr)
		}
		s.clearUser()
		return core.User{}, fmt.Errorf("%w: %v", ErrProfileCreateFailed, err)
	}

	s.setUser(user)
	return user, nil
}

// SignOut ends the provider session. The store transitions to
// Unauthenticated only when the provider call succeeds.
func (s *Store) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.auth.SignOut(ctx); err != nil {
		return err
	}
	s.clearUser()
	return nil
}

// CurrentUser returns the authenticated user, if any.
func (s *Store) CurrentUser() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authenticated
}

// IsAuthenticated reports the current state.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Close releases the auth event subscription and waits for the event
// loop to drain. Safe to call more than once.
func (s *Store) Close() {
	if s.release != nil {
		s.release()
	}
	<-s.done
}

func (s *Store) listen(events <-chan backend.AuthEvent) {
	defer close(s.done)
	for ev := range events {
		switch ev.Type {
		case backend.EventSignedIn:
			if ev.Session == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
			user, err := s.profiles.ProfileByID(ctx, ev.Session.UserID)
			cancel()
			if err != nil {
				slog.Warn("Auth event profile fetch failed", "user_id", ev.Session.UserID, "error", err)
				continue
			}
			s.setUser(user)
		case backend.EventSignedOut:
			s.clearUser()
		}
	}
}

func (s *Store) setUser(user core.User) {
	s.mu.Lock()
	s.user = user
	s.authenticated = true
	s.mu.Unlock()
}

func (s *Store) clearUser() {
	s.mu.Lock()
	s.user = core.User{}
	s.authenticated = false
	s.mu.Unlock()
}
