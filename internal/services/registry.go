package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/config"
	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/pkg/panelclient"
)

// ServerStatus is the health of one configured panel
type ServerStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Online    bool   `json:"online"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Registry owns one panel client per configured server
type Registry struct {
	servers []config.ServerConfig
	clients map[string]*panelclient.Client
	logger  *logrus.Logger
}

// NewRegistry creates a panel client for every configured server.
// Extra options are applied to every client after the configured defaults.
func NewRegistry(cfg *config.Config, logger *logrus.Logger, opts ...panelclient.Option) *Registry {
	timeout := time.Duration(cfg.Panel.TimeoutSeconds) * time.Second
	sessionTTL := time.Duration(cfg.Panel.SessionTTLMinutes) * time.Minute

	r := &Registry{
		servers: cfg.Servers,
		clients: make(map[string]*panelclient.Client, len(cfg.Servers)),
		logger:  logger,
	}

	for _, s := range cfg.Servers {
		logger.Infof("Initializing panel client for server: %s (%s)", s.Name, s.ID)

		clientOpts := append([]panelclient.Option{
			panelclient.WithRequester(panelclient.NewRestyRequester(timeout)),
			panelclient.WithSessionTTL(sessionTTL),
		}, opts...)

		r.clients[s.ID] = panelclient.New(panelclient.Endpoint{
			BaseURL:    s.URL,
			Username:   s.Username,
			Password:   s.Password,
			PublicHost: s.PublicHost,
		}, logger, clientOpts...)
	}

	return r
}

// Servers returns configured servers in configuration order, optionally only those open to free users
func (r *Registry) Servers(freeOnly bool) []config.ServerConfig {
	servers := make([]config.ServerConfig, 0, len(r.servers))
	for _, s := range r.servers {
		if freeOnly && !s.Free {
			continue
		}
		servers = append(servers, s)
	}
	return servers
}

// Server returns the configuration of one server
func (r *Registry) Server(id string) (config.ServerConfig, bool) {
	for _, s := range r.servers {
		if s.ID == id {
			return s, true
		}
	}
	return config.ServerConfig{}, false
}

// Client returns the panel client of one server
func (r *Registry) Client(id string) (*panelclient.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return nil, &apperrors.ServerNotFoundError{ServerID: id}
	}
	return client, nil
}

// CheckAll pings every server in parallel and reports results in configuration order
func (r *Registry) CheckAll(ctx context.Context) []ServerStatus {
	statuses := make([]ServerStatus, len(r.servers))

	var wg sync.WaitGroup
	for i, s := range r.servers {
		wg.Add(1)
		go func(i int, s config.ServerConfig) {
			defer wg.Done()

			status := ServerStatus{ID: s.ID, Name: s.Name}
			latency, err := r.clients[s.ID].Ping(ctx)
			if err != nil {
				r.logger.WithField("server", s.ID).Warnf("Server is offline: %v", err)
				status.Error = err.Error()
			} else {
				status.Online = true
				status.LatencyMs = latency.Milliseconds()
			}
			statuses[i] = status
		}(i, s)
	}
	wg.Wait()

	return statuses
}

// OfflineCount counts servers reported offline
func OfflineCount(statuses []ServerStatus) int {
	n := 0
	for _, s := range statuses {
		if !s.Online {
			n++
		}
	}
	return n
}
