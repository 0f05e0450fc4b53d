// Package local is a self-contained auth/data backend backed by a SQLite
// file, so the application runs without any remote service. Passwords are
// bcrypt-hashed; access tokens are short-lived HS256 JWTs.
package local

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"fintrack/internal/backend"
	"fintrack/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const tokenLifetime = 24 * time.Hour

// Backend implements backend.AuthProvider and backend.ProfileStore.
type Backend struct {
	db        *sql.DB
	jwtSecret []byte
	hub       *backend.EventHub

	mu      sync.Mutex
	session *backend.Session
}

var (
	_ backend.AuthProvider = (*Backend)(nil)
	_ backend.ProfileStore = (*Backend)(nil)
)

func New(dbPath string, jwtSecret string) (*Backend, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("local backend requires a JWT secret")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Backend{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		hub:       backend.NewEventHub(),
	}, nil
}

func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlitemigrate.WithInstance(migrateDB, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	var (
		id        string
		hash      string
		confirmed bool
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT id, password_hash, email_confirmed FROM auth_identities WHERE email = ?`,
		normalizeEmail(email)).Scan(&id, &hash, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		// Same class as a wrong password so sign-in does not leak which
		// emails exist.
		return nil, backend.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query identity: %v", backend.ErrServiceUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, backend.ErrInvalidCredentials
	}
	if !confirmed {
		return nil, backend.ErrEmailNotConfirmed
	}

	session, err := b.mintSession(id, email)
	if err != nil {
		return nil, err
	}
	b.setSession(session)
	b.publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (b *Backend) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO auth_identities (id, email, password_hash) VALUES (?, ?, ?)`,
		id, normalizeEmail(email), string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, backend.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("%w: insert identity: %v", backend.ErrServiceUnavailable, err)
	}

	session, err := b.mintSession(id, email)
	if err != nil {
		return nil, err
	}
	b.setSession(session)
	b.publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (b *Backend) SignOut(_ context.Context) error {
	b.setSession(nil)
	b.publish(backend.AuthEvent{Type: backend.EventSignedOut})
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

// Subscribe registers a listener for auth events. The returned release
// function is idempotent and closes the channel.
func (b *Backend) Subscribe(_ context.Context) (<-chan backend.AuthEvent, func(), error) {
	ch, release := b.hub.Add()
	return ch, release, nil
}

func (b *Backend) ProfileByID(ctx context.Context, id string) (core.User, error) {
	return b.profile(ctx, `SELECT id, username, email FROM users WHERE id = ?`, id)
}

func (b *Backend) ProfileByEmail(ctx context.Context, email string) (core.User, error) {
	return b.profile(ctx, `SELECT id, username, email FROM users WHERE email = ?`, normalizeEmail(email))
}

func (b *Backend) profile(ctx context.Context, query, arg string) (core.User, error) {
	var u core.User
	err := b.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, backend.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("%w: query profile: %v", backend.ErrServiceUnavailable, err)
	}
	return u, nil
}

func (b *Backend) CreateProfile(ctx context.Context, user core.User) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email) VALUES (?, ?, ?)`,
		user.ID, user.Username, normalizeEmail(user.Email))
	if err != nil {
		return fmt.Errorf("%w: insert profile: %v", backend.ErrServiceUnavailable, err)
	}
	return nil
}

// DeleteProfile removes a profile row. Exposed for administrative cleanup;
// the application itself never cascades deletes.
func (b *Backend) DeleteProfile(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", backend.ErrServiceUnavailable, err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.hub.CloseAll()
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *Backend) mintSession(userID, email string) (*backend.Session, error) {
	expiresAt := time.Now().Add(tokenLifetime)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &backend.Session{
		UserID:      userID,
		Email:       normalizeEmail(email),
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (b *Backend) setSession(s *backend.Session) {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
}

func (b *Backend) publish(ev backend.AuthEvent) {
	b.hub.Publish(ev)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
