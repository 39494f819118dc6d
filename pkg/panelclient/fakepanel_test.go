package panelclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakePanel is an httptest backend double that records every request it sees
type fakePanel struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]http.HandlerFunc
	logins   int
	// loginHandler overrides the default successful login
	loginHandler http.HandlerFunc
}

type recordedRequest struct {
	Method string
	Path   string
	Cookie string
	Header http.Header
	Body   []byte
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()

	p := &fakePanel{t: t, routes: map[string]http.HandlerFunc{}}
	p.server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePanel) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	p.mu.Lock()
	p.requests = append(p.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Cookie: r.Header.Get("Cookie"),
		Header: r.Header.Clone(),
		Body:   body,
	})
	if r.URL.Path == "/login" {
		p.logins++
	}
	handler, ok := p.routes[r.URL.Path]
	loginHandler := p.loginHandler
	p.mu.Unlock()

	if r.URL.Path == "/login" {
		if loginHandler != nil {
			loginHandler(w, r)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "lb", Value: "affinity", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "3x-ui", Value: "token-1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "msg": "Login successfully"})
		return
	}

	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// handle registers a handler for an exact path
func (p *fakePanel) handle(path string, h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[path] = h
}

// respond registers a fixed JSON answer for an exact path
func (p *fakePanel) respond(path string, status int, body interface{}) {
	p.handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

// serveInbounds answers the 3x-ui list route with the given inbounds
func (p *fakePanel) serveInbounds(inbounds ...Inbound) {
	p.respond("/panel/api/inbounds/list", http.StatusOK, map[string]interface{}{
		"success": true,
		"obj":     inbounds,
	})
}

func (p *fakePanel) paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := make([]string, 0, len(p.requests))
	for _, r := range p.requests {
		paths = append(paths, r.Path)
	}
	return paths
}

func (p *fakePanel) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (p *fakePanel) last(path string) (recordedRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.requests) - 1; i >= 0; i-- {
		if p.requests[i].Path == path {
			return p.requests[i], true
		}
	}
	return recordedRequest{}, false
}

func (p *fakePanel) loginCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

func (p *fakePanel) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = nil
	p.logins = 0
}

// client returns a panel client pointed at the fake with deterministic ids and clock
func (p *fakePanel) client(opts ...Option) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	base := []Option{
		WithIDGenerator(func() string { return "11111111-2222-4333-8444-555555555555" }),
		WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }),
	}
	return New(Endpoint{
		BaseURL:  p.server.URL + "/",
		Username: "admin",
		Password: "secret",
	}, logger, append(base, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
