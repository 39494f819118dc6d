package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/store"
	"xui-keys-bot/pkg/panelclient"
)

// testPanel is a 3x-ui style panel double built on gin
type testPanel struct {
	server *httptest.Server

	mu       sync.Mutex
	inbounds []panelclient.Inbound
	added    []panelclient.Credential
	deleted  []string
	// reject makes addClient answer with this message
	reject string
}

func newTestPanel(t *testing.T, inbounds ...panelclient.Inbound) *testPanel {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := &testPanel{inbounds: inbounds}
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		c.SetCookie("3x-ui", "tok", 3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	api := r.Group("/panel/api/inbounds")
	api.GET("/list", p.list)
	api.POST("/addClient", p.addClient)
	api.POST("/delClient/:inboundId/:uuid", p.delClient)

	p.server = httptest.NewServer(r)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testPanel) list(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "obj": p.inbounds})
}

func (p *testPanel) addClient(c *gin.Context) {
	var body struct {
		ID       int    `json:"id"`
		Settings string `json:"settings"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "msg": err.Error()})
		return
	}
	var settings struct {
		Clients []panelclient.Credential `json:"clients"`
	}
	if err := json.Unmarshal([]byte(body.Settings), &settings); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "msg": err.Error()})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject != "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "msg": p.reject})
		return
	}
	for i := range p.inbounds {
		if p.inbounds[i].ID != body.ID {
			continue
		}
		for _, cred := range settings.Clients {
			p.inbounds[i].ClientStats = append(p.inbounds[i].ClientStats, panelclient.ClientStat{
				InboundID:  body.ID,
				Enable:     cred.Enable,
				Email:      cred.Email,
				Up:         1024,
				Down:       2048,
				Total:      cred.TotalGB,
				ExpiryTime: cred.ExpiryTime,
			})
		}
	}
	p.added = append(p.added, settings.Clients...)
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Client(s) added Successfully"})
}

func (p *testPanel) delClient(c *gin.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, c.Param("uuid"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (p *testPanel) addedCredentials() []panelclient.Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]panelclient.Credential(nil), p.added...)
}

func (p *testPanel) deletedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleted...)
}

var testVLESSInbound = panelclient.Inbound{
	ID:             1,
	Port:           443,
	Protocol:       "vless",
	Remark:         "main",
	Enable:         true,
	StreamSettings: `{"network":"tcp","security":"tls"}`,
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(servers ...config.ServerConfig) *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{Token: "t", AdminIDs: []int64{1}},
		Servers:  servers,
		Limits: config.LimitsConfig{
			FreeGB:                1,
			PremiumGB:             0,
			FreeExpireDays:        30,
			FreeClaimCooldownDays: 30,
			RateLimitMs:           2000,
		},
		Panel:    config.PanelConfig{TimeoutSeconds: 5, SessionTTLMinutes: 30},
		Branding: config.BrandingConfig{RemarkSuffix: "( mmkeys_bot )"},
	}
}

func serverFor(id, name string, p *testPanel, free bool) config.ServerConfig {
	return config.ServerConfig{
		ID:       id,
		Name:     name,
		URL:      p.server.URL,
		Username: "admin",
		Password: "admin",
		Free:     free,
	}
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "services.db"),
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// fixedClock returns a clock that can be moved forward by tests
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
