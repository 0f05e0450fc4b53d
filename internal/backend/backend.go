// Package backend defines the port to the remote auth/data provider. The
// rest of the application only ever sees these interfaces; concrete
// implementations live in the local, rest and memory subpackages.
package backend

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// AuthEventType classifies a push notification from the auth provider.
type AuthEventType string

const (
	EventSignedIn  AuthEventType = "signed_in"
	EventSignedOut AuthEventType = "signed_out"
)

// AuthEvent is delivered on the subscription channel whenever the
// provider's session state changes.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// Session is the provider's record that a user is currently authenticated.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// AuthProvider is the credential side of the backend.
//
// Subscribe returns a channel of auth events plus a release function; the
// subscription is long-lived and the caller must invoke the release on
// teardown. Implementations close the channel once released.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	Subscribe(ctx context.Context) (<-chan AuthEvent, func(), error)
}

// ProfileStore is row access to the users table, keyed by the auth
// identity id.
type ProfileStore interface {
	ProfileByID(ctx context.Context, id string) (core.User, error)
	ProfileByEmail(ctx context.Context, email string) (core.User, error)
	CreateProfile(ctx context.Context, user core.User) error
}
