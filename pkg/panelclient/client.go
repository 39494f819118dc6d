package panelclient

import (
	"crypto/rand"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/constants"
)

const maxLoggedBody = 500

// Client talks to one panel backend of unknown fork and version
type Client struct {
	endpoint  Endpoint
	requester Requester
	session   *session
	logger    *logrus.Logger
	now       func() time.Time
	random    io.Reader
	newID     func() string
}

// Option customizes a Client
type Option func(*Client)

// WithRequester replaces the default resty requester
func WithRequester(r Requester) Option {
	return func(c *Client) { c.requester = r }
}

// WithSessionTTL bounds how long a retained session is reused; zero keeps it until invalidated
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Client) { c.session = newSession(ttl) }
}

// WithClock sets the time source used for expiry timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRandom sets the entropy source used for derived keys
func WithRandom(r io.Reader) Option {
	return func(c *Client) { c.random = r }
}

// WithIDGenerator sets the generator of credential identifiers
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// New creates a client for the given panel
func New(endpoint Endpoint, logger *logrus.Logger, opts ...Option) *Client {
	endpoint.BaseURL = strings.TrimRight(strings.TrimSpace(endpoint.BaseURL), "/")

	c := &Client{
		endpoint:  endpoint,
		requester: NewRestyRequester(constants.DefaultTimeout * time.Second),
		session:   newSession(constants.SessionTTL * time.Minute),
		logger:    logger,
		now:       time.Now,
		random:    rand.Reader,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the backend configuration
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// LinkHost is the host written into connection links
func (c *Client) LinkHost() string {
	if c.endpoint.PublicHost != "" {
		return c.endpoint.PublicHost
	}
	u, err := url.Parse(c.endpoint.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (c *Client) url(path string) string {
	return c.endpoint.BaseURL + path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
