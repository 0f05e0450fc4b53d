// Package memory is an in-process backend fake for tests and the
// zero-dependency demo mode.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/backend"
	"fintrack/internal/core"
)

type identity struct {
	id        string
	email     string
	password  string
	confirmed bool
}

type Backend struct {
	hub *backend.EventHub

	mu         sync.Mutex
	identities map[string]identity // keyed by email
	profiles   map[string]core.User
	session    *backend.Session

	// Failure injection for tests.
	profileCreateErr error
	signInErr        error
	signOutErr       error
}

var (
	_ backend.AuthProvider = (*Backend)(nil)
	_ backend.ProfileStore = (*Backend)(nil)
)

func New() *Backend {
	return &Backend{
		hub:        backend.NewEventHub(),
		identities: make(map[string]identity),
		profiles:   make(map[string]core.User),
	}
}

// Register seeds an identity and matching profile, bypassing SignUp.
func (b *Backend) Register(user core.User, password string, confirmed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	email := normalize(user.Email)
	b.identities[email] = identity{id: user.ID, email: email, password: password, confirmed: confirmed}
	b.profiles[user.ID] = user
}

// FailProfileCreates makes CreateProfile return err until reset with nil.
func (b *Backend) FailProfileCreates(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileCreateErr = err
}

// FailSignIns makes SignIn return err until reset with nil.
func (b *Backend) FailSignIns(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signInErr = err
}

// FailSignOuts makes SignOut return err until reset with nil.
func (b *Backend) FailSignOuts(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signOutErr = err
}

func (b *Backend) SignIn(_ context.Context, email, password string) (*backend.Session, error) {
	b.mu.Lock()
	if b.signInErr != nil {
		err := b.signInErr
		b.mu.Unlock()
		return nil, err
	}
	ident, ok := b.identities[normalize(email)]
	b.mu.Unlock()

	if !ok || ident.password != password {
		return nil, backend.ErrInvalidCredentials
	}
	if !ident.confirmed {
		return nil, backend.ErrEmailNotConfirmed
	}

	session := b.newSession(ident)
	b.setSession(session)
	b.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (b *Backend) SignUp(_ context.Context, email, password string) (*backend.Session, error) {
	b.mu.Lock()
	key := normalize(email)
	if _, exists := b.identities[key]; exists {
		b.mu.Unlock()
		return nil, backend.ErrAlreadyRegistered
	}
	ident := identity{id: uuid.NewString(), email: key, password: password, confirmed: true}
	b.identities[key] = ident
	b.mu.Unlock()

	session := b.newSession(ident)
	b.setSession(session)
	b.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (b *Backend) SignOut(_ context.Context) error {
	b.mu.Lock()
	signOutErr := b.signOutErr
	b.mu.Unlock()
	if signOutErr != nil {
		return signOutErr
	}

	b.setSession(nil)
	b.hub.Publish(backend.AuthEvent{Type: backend.EventSignedOut})
	return nil
}

func (b *Backend) CurrentSession(_ context.Context) (*backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil || b.session.Expired() {
		return nil, backend.ErrNoSession
	}
	copied := *b.session
	return &copied, nil
}

func (b *Backend) Subscribe(_ context.Context) (<-chan backend.AuthEvent, func(), error) {
	ch, release := b.hub.Add()
	return ch, release, nil
}

// EmitSignedOut publishes an external sign-out event, as if another client
// of the same account had logged out. Test helper.
func (b *Backend) EmitSignedOut() {
	b.setSession(nil)
	b.hub.Publish(backend.AuthEvent{Type: backend.EventSignedOut})
}

// EmitSignedIn publishes an external sign-in event for a registered user.
func (b *Backend) EmitSignedIn(email string) error {
	b.mu.Lock()
	ident, ok := b.identities[normalize(email)]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("no identity for %s", email)
	}
	session := b.newSession(ident)
	b.setSession(session)
	b.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return nil
}

func (b *Backend) Close() error {
	b.hub.CloseAll()
	return nil
}

func (b *Backend) ProfileByID(_ context.Context, id string) (core.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.profiles[id]
	if !ok {
		return core.User{}, backend.ErrUserNotFound
	}
	return u, nil
}

func (b *Backend) ProfileByEmail(_ context.Context, email string) (core.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := normalize(email)
	for _, u := range b.profiles {
		if normalize(u.Email) == key {
			return u, nil
		}
	}
	return core.User{}, backend.ErrUserNotFound
}

func (b *Backend) CreateProfile(_ context.Context, user core.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.profileCreateErr != nil {
		return b.profileCreateErr
	}
	b.profiles[user.ID] = user
	return nil
}

func (b *Backend) newSession(ident identity) *backend.Session {
	return &backend.Session{
		UserID:      ident.id,
		Email:       ident.email,
		AccessToken: uuid.NewString(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func (b *Backend) setSession(s *backend.Session) {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
