package panelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const sessionKey = "session"

// Cookie names known forks use for their session. Anything else falls back to the first cookie.
var sessionCookieNames = []string{"session", "3x-ui"}

// LoginErrorKind classifies login failures
type LoginErrorKind int

const (
	LoginRejected LoginErrorKind = iota + 1
	LoginNoCookie
	LoginTransport
)

// LoginError is returned by Login
type LoginError struct {
	Kind    LoginErrorKind
	Status  int
	Message string
	Err     error
}

// Error returns the error message
func (e *LoginError) Error() string {
	switch e.Kind {
	case LoginNoCookie:
		return "login succeeded but no session cookie was issued"
	case LoginTransport:
		return fmt.Sprintf("login request failed: %v", e.Err)
	default:
		if e.Message != "" {
			return fmt.Sprintf("login rejected (status %d): %s", e.Status, e.Message)
		}
		return fmt.Sprintf("login rejected (status %d)", e.Status)
	}
}

// Unwrap returns the underlying transport error, if any
func (e *LoginError) Unwrap() error {
	return e.Err
}

// session holds the retained cookie of one client instance
type session struct {
	store *cache.Cache
}

func newSession(ttl time.Duration) *session {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	// no janitor goroutine: expired entries are already invisible to Get
	return &session{store: cache.New(ttl, 0)}
}

func (s *session) token() (string, bool) {
	v, found := s.store.Get(sessionKey)
	if !found {
		return "", false
	}
	token, ok := v.(string)
	return token, ok && token != ""
}

func (s *session) set(token string) {
	s.store.Set(sessionKey, token, cache.DefaultExpiration)
}

func (s *session) clear() {
	s.store.Delete(sessionKey)
}

// Login authenticates against the panel and retains the session cookie
func (c *Client) Login(ctx context.Context) error {
	c.logger.Infof("Logging in to panel at %s", c.endpoint.BaseURL)
	c.logger.Debugf("Using username: %s", c.endpoint.Username)

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := c.requester.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.url("/login"),
		Header: header,
		Body: map[string]string{
			"username": c.endpoint.Username,
			"password": c.endpoint.Password,
		},
	})
	if err != nil {
		c.logger.Errorf("Login request to %s failed: %v", c.endpoint.BaseURL, err)
		return &LoginError{Kind: LoginTransport, Err: err}
	}

	var apiResp apiResponse
	parseErr := json.Unmarshal(resp.Body, &apiResp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parseErr != nil || !apiResp.Success {
		c.logger.Errorf("Login failed - URL: %s/login, Status: %d, Response: %s",
			c.endpoint.BaseURL, resp.StatusCode, truncate(string(resp.Body), maxLoggedBody))
		return &LoginError{Kind: LoginRejected, Status: resp.StatusCode, Message: apiResp.Msg}
	}

	token := pickSessionCookie(resp.Header.Values("Set-Cookie"))
	if token == "" {
		c.logger.Errorf("Login to %s succeeded but no cookie was returned", c.endpoint.BaseURL)
		return &LoginError{Kind: LoginNoCookie, Status: resp.StatusCode}
	}

	c.session.set(token)
	c.logger.Infof("Successfully logged in to panel at %s", c.endpoint.BaseURL)
	return nil
}

// Invalidate drops the retained session so the next privileged call logs in again
func (c *Client) Invalidate() {
	c.session.clear()
}

// EnsureSession logs in only when no session is held
func (c *Client) EnsureSession(ctx context.Context) error {
	if _, ok := c.session.token(); ok {
		return nil
	}
	return c.Login(ctx)
}

// pickSessionCookie returns the name=value part of the preferred Set-Cookie header
func pickSessionCookie(setCookies []string) string {
	if len(setCookies) == 0 {
		return ""
	}

	chosen := setCookies[0]
	for _, raw := range setCookies {
		if hasCookieName(raw, sessionCookieNames) {
			chosen = raw
			break
		}
	}

	nameValue, _, _ := strings.Cut(chosen, ";")
	return strings.TrimSpace(nameValue)
}

func hasCookieName(raw string, names []string) bool {
	raw = strings.TrimSpace(raw)
	for _, name := range names {
		if strings.HasPrefix(raw, name+"=") {
			return true
		}
	}
	return false
}
