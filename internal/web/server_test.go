package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xui-keys-bot/internal/services"
)

type fakeChecker []services.ServerStatus

func (c fakeChecker) CheckAll(context.Context) []services.ServerStatus { return c }

func newTestServer(t *testing.T, statuses fakeChecker) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts := httptest.NewServer(NewServer(":0", statuses, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServers(t *testing.T) {
	ts := newTestServer(t, fakeChecker{
		{ID: "sg", Name: "Singapore", Online: true, LatencyMs: 12},
		{ID: "jp", Name: "Tokyo", Error: "connection refused"},
	})

	resp, err := http.Get(ts.URL + "/servers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []services.ServerStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "sg", statuses[0].ID)
	assert.True(t, statuses[0].Online)
	assert.Equal(t, int64(12), statuses[0].LatencyMs)
	assert.Equal(t, "connection refused", statuses[1].Error)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
