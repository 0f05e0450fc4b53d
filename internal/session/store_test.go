package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/backend/memory"
	"fintrack/internal/core"
)

func newTestStore(t *testing.T, be *memory.Backend) *Store {
	t.Helper()
	s, err := New(context.Background(), be, be)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewStartsUnauthenticated(t *testing.T) {
	s := newTestStore(t, memory.New())
	if s.IsAuthenticated() {
		t.Fatal("fresh store should be unauthenticated")
	}
	if _, ok := s.CurrentUser(); ok {
		t.Fatal("fresh store should have no current user")
	}
}

func TestNewRestoresExistingSession(t *testing.T) {
	ctx := context.Background()
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	if _, err := be.SignIn(ctx, "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("backend sign-in: %v", err)
	}

	s := newTestStore(t, be)
	user, ok := s.CurrentUser()
	if !ok || user.Username != "ada" {
		t.Fatalf("restored user = %+v ok=%v, want ada", user, ok)
	}
}

func TestSignIn(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)

	user, err := s.SignIn(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user.ID != "u1" || !s.IsAuthenticated() {
		t.Fatalf("user = %+v authenticated=%v", user, s.IsAuthenticated())
	}
}

func TestSignInWrongPassword(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)

	_, err := s.SignIn(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, backend.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("failed sign-in must leave the store unauthenticated")
	}
}

func TestSignInUnconfirmedEmail(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", false)
	s := newTestStore(t, be)

	_, err := s.SignIn(context.Background(), "ada@example.com", "hunter22")
	if !errors.Is(err, backend.ErrEmailNotConfirmed) {
		t.Fatalf("err = %v, want ErrEmailNotConfirmed", err)
	}
}

func TestSignUp(t *testing.T) {
	be := memory.New()
	s := newTestStore(t, be)

	user, err := s.SignUp(context.Background(), "grace", "grace@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Username != "grace" || user.Email != "grace@example.com" {
		t.Fatalf("user = %+v", user)
	}
	if !s.IsAuthenticated() {
		t.Fatal("store should be authenticated after sign-up")
	}

	// The profile row exists on the backend too.
	if _, err := be.ProfileByEmail(context.Background(), "grace@example.com"); err != nil {
		t.Fatalf("profile lookup after sign-up: %v", err)
	}
}

func TestSignUpExistingEmail(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)

	_, err := s.SignUp(context.Background(), "other", "ada@example.com", "password1")
	if !errors.Is(err, backend.ErrAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrAlreadyRegistered", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("rejected sign-up must not authenticate")
	}
}

func TestSignUpProfileCreateFailureCompensates(t *testing.T) {
	be := memory.New()
	be.FailProfileCreates(errors.New("backend down"))
	s := newTestStore(t, be)

	_, err := s.SignUp(context.Background(), "grace", "grace@example.com", "password1")
	if !errors.Is(err, ErrProfileCreateFailed) {
		t.Fatalf("err = %v, want ErrProfileCreateFailed", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("store must be unauthenticated after compensated sign-up")
	}
	// The compensating sign-out cleared the provider session as well.
	if _, err := be.CurrentSession(context.Background()); !errors.Is(err, backend.ErrNoSession) {
		t.Fatalf("provider session = %v, want ErrNoSession", err)
	}
}

func TestSignOut(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)

	if _, err := s.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := s.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("store should be unauthenticated after sign-out")
	}
}

func TestSignOutFailureKeepsState(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)
	if _, err := s.SignIn(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	boom := errors.New("network down")
	be.FailSignOuts(boom)
	if err := s.SignOut(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want injected failure", err)
	}
	if !s.IsAuthenticated() {
		t.Fatal("failed provider sign-out must keep the store authenticated")
	}
}

func TestExternalAuthEvents(t *testing.T) {
	be := memory.New()
	be.Register(core.User{ID: "u1", Username: "ada", Email: "ada@example.com"}, "hunter22", true)
	s := newTestStore(t, be)

	if err := be.EmitSignedIn("ada@example.com"); err != nil {
		t.Fatalf("EmitSignedIn: %v", err)
	}
	waitFor(t, s.IsAuthenticated, "store never picked up external sign-in event")

	user, _ := s.CurrentUser()
	if user.Username != "ada" {
		t.Fatalf("user = %+v, want ada", user)
	}

	be.EmitSignedOut()
	waitFor(t, func() bool { return !s.IsAuthenticated() }, "store never picked up external sign-out event")
}
