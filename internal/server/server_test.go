package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/app"
	"github.com/ternarybob/vipaii/internal/common"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	server := httptest.NewServer(New(application).Handler())
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf strings.Builder
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	return resp, buf.String()
}

func TestRoutes_System(t *testing.T) {
	server := newTestServer(t)

	resp, body := do(t, http.MethodGet, server.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = do(t, http.MethodGet, server.URL+"/api/version", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"version"`)

	resp, _ = do(t, http.MethodGet, server.URL+"/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodOptions, server.URL+"/api/analyze", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_SessionLifecycle(t *testing.T) {
	server := newTestServer(t)

	resp, body := do(t, http.MethodPost, server.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	require.NotEmpty(t, created.ID)

	resp, body = do(t, http.MethodGet, server.URL+"/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Chào bạn! Mình là Vipaii.")

	resp, body = do(t, http.MethodGet, server.URL+"/api/sessions/"+created.ID+"/image", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"state":"idle"`)

	resp, _ = do(t, http.MethodGet, server.URL+"/api/sessions/"+created.ID+"/image/download", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, server.URL+"/api/sessions/"+created.ID+"/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "DELETE, POST", resp.Header.Get("Allow"))

	resp, _ = do(t, http.MethodPost, server.URL+"/api/sessions/"+created.ID+"/chat", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, server.URL+"/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, server.URL+"/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_HistoryKeyAndScheduler(t *testing.T) {
	server := newTestServer(t)

	resp, body := do(t, http.MethodGet, server.URL+"/api/history", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"count":0`)

	resp, _ = do(t, http.MethodGet, server.URL+"/api/history/hist_missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, server.URL+"/api/history/hist_missing/export?format=md", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, server.URL+"/api/key", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"selected":false`)

	resp, _ = do(t, http.MethodPost, server.URL+"/api/key", `{"api_key":"AIza-route-test"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = do(t, http.MethodGet, server.URL+"/api/key", "")
	assert.Contains(t, body, `"selected":true`)

	resp, body = do(t, http.MethodGet, server.URL+"/api/scheduler/jobs", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, app.HistoryPruneJob)
	assert.Contains(t, body, app.SessionSweepJob)
	assert.Contains(t, body, app.StorageGCJob)

	resp, _ = do(t, http.MethodPost, server.URL+"/api/scheduler/jobs/"+app.StorageGCJob+"/trigger", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, server.URL+"/api/scheduler/jobs/"+app.SessionSweepJob+"/trigger", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, server.URL+"/api/scheduler/jobs/unknown/trigger", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestID_EchoesCallerValue(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/version", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}
