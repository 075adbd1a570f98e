// Package session implements the client half of the authentication flow:
// it owns the token pair, keeps the session state machine, refreshes
// expired access tokens behind a single flight, and exposes the identity
// snapshot that guards evaluate against.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
)

const (
	defaultProfileWindow = time.Second
	defaultTimeout       = 15 * time.Second
)

// Client talks to the auth API on behalf of one user. All exported
// methods are safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   TokenStore
	now     func() time.Time

	mu    sync.Mutex
	state State
	pair  TokenPair
	snap  *Snapshot

	refreshGroup singleflight.Group

	profileGroup  singleflight.Group
	profileMu     sync.Mutex
	profileCached *Snapshot
	profileAt     time.Time
	profileWindow time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithProfileWindow sets the debounce window for Profile.
func WithProfileWindow(d time.Duration) Option {
	return func(c *Client) { c.profileWindow = d }
}

func NewClient(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpc:         &http.Client{Timeout: defaultTimeout},
		store:         store,
		now:           time.Now,
		state:         StateUninitialized,
		profileWindow: defaultProfileWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init restores a prior session from the token store. A pair whose access
// token is structurally broken or already past its expiry is discarded and
// the session settles anonymous; a plausible pair settles authenticated
// and the profile is fetched in the background. Init never blocks on the
// network and a transient profile failure does not change the state.
func (c *Client) Init(ctx context.Context) State {
	c.mu.Lock()
	if c.state != StateUninitialized {
		s := c.state
		c.mu.Unlock()
		return s
	}
	c.state = StateInitializing
	c.mu.Unlock()

	pair, ok, err := c.store.Load()
	if err != nil || !ok || !LocallyValid(pair.AccessToken, c.now()) {
		_ = c.store.Clear()
		c.mu.Lock()
		c.state = StateAnonymous
		c.pair = TokenPair{}
		c.snap = nil
		c.mu.Unlock()
		return StateAnonymous
	}

	c.mu.Lock()
	c.pair = pair
	c.state = StateAuthenticated
	c.mu.Unlock()

	go func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		_, _ = c.Profile(fctx)
	}()
	return StateAuthenticated
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the last known identity, if any.
func (c *Client) Snapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return Snapshot{}, false
	}
	return *c.snap, true
}

type tokenGrant struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         Snapshot `json:"user"`
}

// Login exchanges credentials for a token pair. A 401 surfaces as
// ErrInvalidCredentials without distinguishing which credential was wrong;
// a 503 surfaces as ErrUnavailable and leaves any stored pair untouched.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) error {
	body, err := json.Marshal(map[string]any{
		"email":       email,
		"password":    password,
		"remember_me": rememberMe,
	})
	if err != nil {
		return err
	}
	resp, err := c.postJSON(ctx, "/v1/auth/login", body)
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var grant tokenGrant
		if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
			return fmt.Errorf("decode login response: %w", err)
		}
		return c.adopt(grant)
	case resp.StatusCode == http.StatusUnauthorized:
		drain(resp.Body)
		return auth.ErrInvalidCredentials
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", auth.ErrInvalidInput, errorMessage(resp.Body))
	case resp.StatusCode >= 500:
		drain(resp.Body)
		return auth.ErrUnavailable
	default:
		drain(resp.Body)
		return fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}
}

// Logout drops the pair locally. Tokens are stateless so there is nothing
// to revoke server-side; forgetting them ends the session.
func (c *Client) Logout() error {
	err := c.store.Clear()
	c.mu.Lock()
	c.pair = TokenPair{}
	c.snap = nil
	c.state = StateAnonymous
	c.mu.Unlock()
	c.invalidateProfile()
	return err
}

// adopt installs a freshly granted pair: persist first, then publish, so a
// crash between the two never leaves memory ahead of storage.
func (c *Client) adopt(grant tokenGrant) error {
	pair := TokenPair{AccessToken: grant.AccessToken, RefreshToken: grant.RefreshToken}
	if err := c.store.Save(pair); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	snap := grant.User
	c.mu.Lock()
	c.pair = pair
	c.snap = &snap
	c.state = StateAuthenticated
	c.mu.Unlock()
	c.invalidateProfile()
	return nil
}

// Do sends an authenticated request. On a 401 it refreshes the pair
// (concurrent callers share one refresh) and replays the request exactly
// once with the new access token; a second 401 is returned as-is. Requests
// with a non-rewindable body are never replayed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	token := c.pair.AccessToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	fresh, rerr := c.refresh(req.Context(), token)
	if rerr != nil {
		return resp, nil
	}
	drain(resp.Body)
	resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+fresh.AccessToken)
	return c.httpc.Do(retry)
}

// refresh exchanges the refresh token for a new pair. All concurrent
// callers join one in-flight exchange; the holder is updated before any
// waiter is released, so every caller retries with the new access token.
// A rejected refresh token is terminal: state moves to Expired and the
// stored pair is cleared. A network or 5xx failure leaves the pair intact.
func (c *Client) refresh(ctx context.Context, staleAccess string) (TokenPair, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		c.mu.Lock()
		// Someone else already rotated the pair; reuse it.
		if c.pair.AccessToken != "" && c.pair.AccessToken != staleAccess {
			pair := c.pair
			c.mu.Unlock()
			return pair, nil
		}
		refreshToken := c.pair.RefreshToken
		if refreshToken == "" {
			c.mu.Unlock()
			return nil, c.expire()
		}
		prev := c.state
		c.state = StateRefreshing
		c.mu.Unlock()

		body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
		resp, err := c.postJSON(ctx, "/v1/auth/refresh", body)
		if err != nil {
			c.setState(prev)
			return nil, fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var grant tokenGrant
			if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
				c.setState(prev)
				return nil, fmt.Errorf("decode refresh response: %w", err)
			}
			if err := c.adopt(grant); err != nil {
				c.setState(prev)
				return nil, err
			}
			return TokenPair{AccessToken: grant.AccessToken, RefreshToken: grant.RefreshToken}, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
			drain(resp.Body)
			return nil, c.expire()
		default:
			drain(resp.Body)
			c.setState(prev)
			return nil, auth.ErrUnavailable
		}
	})
	if err != nil {
		return TokenPair{}, err
	}
	return v.(TokenPair), nil
}

// expire is the terminal transition: the refresh token was rejected, so
// the whole session is over until the user logs in again.
func (c *Client) expire() error {
	_ = c.store.Clear()
	c.mu.Lock()
	c.pair = TokenPair{}
	c.snap = nil
	c.state = StateExpired
	c.mu.Unlock()
	c.invalidateProfile()
	return fmt.Errorf("%w: session expired", auth.ErrTokenInvalid)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Profile returns the caller's identity from /v1/users/profile. Calls
// inside the debounce window share one result; a burst of components
// mounting at once produces a single fetch.
func (c *Client) Profile(ctx context.Context) (Snapshot, error) {
	c.profileMu.Lock()
	if c.profileCached != nil && c.now().Sub(c.profileAt) < c.profileWindow {
		snap := *c.profileCached
		c.profileMu.Unlock()
		return snap, nil
	}
	c.profileMu.Unlock()

	v, err, _ := c.profileGroup.Do("profile", func() (any, error) {
		// Re-check under the flight: a caller that lost the race to an
		// already-finished fetch should still get the cached result.
		c.profileMu.Lock()
		if c.profileCached != nil && c.now().Sub(c.profileAt) < c.profileWindow {
			snap := *c.profileCached
			c.profileMu.Unlock()
			return snap, nil
		}
		c.profileMu.Unlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/profile", nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK:
			var snap Snapshot
			if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
				return nil, fmt.Errorf("decode profile: %w", err)
			}
			c.profileMu.Lock()
			c.profileCached = &snap
			c.profileAt = c.now()
			c.profileMu.Unlock()
			c.mu.Lock()
			c.snap = &snap
			c.mu.Unlock()
			return snap, nil
		case resp.StatusCode == http.StatusUnauthorized:
			drain(resp.Body)
			return nil, fmt.Errorf("%w: profile fetch unauthorized", auth.ErrTokenInvalid)
		case resp.StatusCode == http.StatusNotFound:
			drain(resp.Body)
			return nil, auth.ErrNotFound
		default:
			drain(resp.Body)
			return nil, fmt.Errorf("profile: unexpected status %d", resp.StatusCode)
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (c *Client) invalidateProfile() {
	c.profileMu.Lock()
	c.profileCached = nil
	c.profileAt = time.Time{}
	c.profileMu.Unlock()
}

func (c *Client) postJSON(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpc.Do(req)
}

func errorMessage(r io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil || payload.Error == "" {
		return "request rejected"
	}
	return payload.Error
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 1<<16))
}
