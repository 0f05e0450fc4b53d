// Package rest talks to a hosted Supabase-style auth/data service over
// HTTP. The session obtained from the token endpoint is cached in the
// local blob store so a restart can restore it without re-authenticating.
//
// The event stream reflects this client's own session transitions
// (sign-in, sign-out, restore); cross-client push would require a
// streaming channel the service does not expose at this layer.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/backend"
	"fintrack/internal/blob"
	"fintrack/internal/core"
)

// SessionSlot is the blob store slot holding the cached session.
const SessionSlot = "session"

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tokens  blob.Store // optional; nil disables session persistence
	hub     *backend.EventHub

	mu      sync.Mutex
	session *backend.Session
}

var (
	_ backend.AuthProvider = (*Client)(nil)
	_ backend.ProfileStore = (*Client)(nil)
)

// New creates a client for the service at baseURL. tokens may be nil, in
// which case sessions live only for the process lifetime.
func New(baseURL, apiKey string, tokens blob.Store) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("rest backend requires a base URL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		hub:     backend.NewEventHub(),
	}, nil
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type authError struct {
	Code        string `json:"error_code"`
	Message     string `json:"msg"`
	Description string `json:"error_description"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	session, err := c.tokenRequest(ctx, "/auth/v1/token?grant_type=password", email, password)
	if err != nil {
		return nil, err
	}
	c.storeSession(ctx, session)
	c.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	session, err := c.tokenRequest(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return nil, err
	}
	c.storeSession(ctx, session)
	c.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
	return session, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session != nil {
		req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", backend.ErrServiceUnavailable, err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: logout returned %d", backend.ErrServiceUnavailable, resp.StatusCode)
		}
	}

	c.clearSession(ctx)
	c.hub.Publish(backend.AuthEvent{Type: backend.EventSignedOut})
	return nil
}

// CurrentSession returns the cached session, restoring it from the blob
// store on first call after a restart.
func (c *Client) CurrentSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil && c.tokens != nil {
		restored, err := c.restoreSession(ctx)
		if err != nil {
			return nil, err
		}
		session = restored
		if session != nil {
			c.mu.Lock()
			c.session = session
			c.mu.Unlock()
			c.hub.Publish(backend.AuthEvent{Type: backend.EventSignedIn, Session: session})
		}
	}

	if session == nil || session.Expired() {
		return nil, backend.ErrNoSession
	}
	copied := *session
	return &copied, nil
}

func (c *Client) Subscribe(_ context.Context) (<-chan backend.AuthEvent, func(), error) {
	ch, release := c.hub.Add()
	return ch, release, nil
}

// Close releases every subscriber.
func (c *Client) Close() error {
	c.hub.CloseAll()
	return nil
}

func (c *Client) ProfileByID(ctx context.Context, id string) (core.User, error) {
	return c.profile(ctx, "id=eq."+url.QueryEscape(id))
}

func (c *Client) ProfileByEmail(ctx context.Context, email string) (core.User, error) {
	return c.profile(ctx, "email=eq."+url.QueryEscape(strings.ToLower(strings.TrimSpace(email))))
}

func (c *Client) profile(ctx context.Context, filter string) (core.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/users?select=id,username,email&"+filter, nil)
	if err != nil {
		return core.User{}, err
	}
	resp, err := c.doAuthed(req)
	if err != nil {
		return core.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.User{}, fmt.Errorf("%w: users query returned %d", backend.ErrServiceUnavailable, resp.StatusCode)
	}
	var rows []core.User
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return core.User{}, fmt.Errorf("%w: decode users: %v", backend.ErrServiceUnavailable, err)
	}
	if len(rows) == 0 {
		return core.User{}, backend.ErrUserNotFound
	}
	return rows[0], nil
}

func (c *Client) CreateProfile(ctx context.Context, user core.User) error {
	body, err := json.Marshal([]core.User{user})
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.doAuthed(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: users insert returned %d", backend.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) tokenRequest(ctx context.Context, path, email, password string) (*backend.Session, error) {
	body, err := json.Marshal(map[string]string{
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", backend.ErrServiceUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return nil, classifyAuthError(resp.StatusCode, raw)
	}

	var ar authResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, fmt.Errorf("%w: decode auth response: %v", backend.ErrServiceUnavailable, err)
	}
	return c.sessionFromResponse(ar)
}

// classifyAuthError maps the service's error body onto the shared auth
// failure classes.
func classifyAuthError(status int, raw []byte) error {
	var ae authError
	_ = json.Unmarshal(raw, &ae)
	msg := strings.ToLower(ae.Code + " " + ae.Message + " " + ae.Description)

	switch {
	case strings.Contains(msg, "invalid_credentials"), strings.Contains(msg, "invalid login"):
		return backend.ErrInvalidCredentials
	case strings.Contains(msg, "email_not_confirmed"), strings.Contains(msg, "not confirmed"):
		return backend.ErrEmailNotConfirmed
	case strings.Contains(msg, "user_already_exists"), strings.Contains(msg, "already registered"):
		return backend.ErrAlreadyRegistered
	case strings.Contains(msg, "user_not_found"):
		return backend.ErrUserNotFound
	case status >= 500:
		return fmt.Errorf("%w: auth endpoint returned %d", backend.ErrServiceUnavailable, status)
	default:
		return fmt.Errorf("authentication failed (%d): %s", status, strings.TrimSpace(ae.Message+ae.Description))
	}
}

// sessionFromResponse derives identity and expiry, preferring the token's
// own registered claims. The signature is the server's to verify, not
// ours, so the token is parsed unverified.
func (c *Client) sessionFromResponse(ar authResponse) (*backend.Session, error) {
	if ar.AccessToken == "" {
		return nil, fmt.Errorf("%w: auth response missing access token", backend.ErrServiceUnavailable)
	}

	userID := ar.User.ID
	expiresAt := time.Time{}
	if ar.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(ar.ExpiresIn) * time.Second)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(ar.AccessToken, &claims); err == nil {
		if userID == "" {
			userID = claims.Subject
		}
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: cannot determine session identity", backend.ErrServiceUnavailable)
	}

	return &backend.Session{
		UserID:      userID,
		Email:       ar.User.Email,
		AccessToken: ar.AccessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	return req, nil
}

func (c *Client) doAuthed(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrServiceUnavailable, err)
	}
	return resp, nil
}

type storedSession struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (c *Client) storeSession(ctx context.Context, s *backend.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	if c.tokens == nil {
		return
	}
	data, err := blob.EncodeSnapshot(storedSession{
		UserID:      s.UserID,
		Email:       s.Email,
		AccessToken: s.AccessToken,
		ExpiresAt:   s.ExpiresAt,
	})
	if err == nil {
		// Best effort: a failed write only costs the next restart a login.
		_ = c.tokens.Put(ctx, SessionSlot, data)
	}
}

func (c *Client) clearSession(ctx context.Context) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.tokens != nil {
		_ = c.tokens.Put(ctx, SessionSlot, nil)
	}
}

func (c *Client) restoreSession(ctx context.Context) (*backend.Session, error) {
	data, err := c.tokens.Get(ctx, SessionSlot)
	if errors.Is(err, blob.ErrNoSnapshot) || len(data) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read stored session: %v", backend.ErrServiceUnavailable, err)
	}
	var stored storedSession
	if err := blob.DecodeSnapshot(data, &stored); err != nil {
		// A corrupt or newer-versioned session blob is discarded, not fatal.
		return nil, nil
	}
	session := &backend.Session{
		UserID:      stored.UserID,
		Email:       stored.Email,
		AccessToken: stored.AccessToken,
		ExpiresAt:   stored.ExpiresAt,
	}
	if session.Expired() {
		return nil, nil
	}
	return session, nil
}
