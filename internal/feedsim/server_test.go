package feedsim

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-watch/monitor/internal/feed"
)

func newTestServer(t *testing.T, token string) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Options{
		BatchSize: 4,
		FraudRate: 0.2,
		Token:     token,
		Seed:      42,
		Logger:    log.New(io.Discard, "", 0),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, token string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestControlRoutes(t *testing.T) {
	s, ts := newTestServer(t, "")

	resp, body := post(t, ts.URL+"/api/mode/real_model/start", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["status"], "started")
	assert.True(t, s.Generator(feed.ModeRealModel).Running())
	assert.False(t, s.Generator(feed.ModeSimulation).Running())

	resp, body = post(t, ts.URL+"/api/mode/real_model/stop", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["status"], "stopped")
	assert.False(t, s.Generator(feed.ModeRealModel).Running())

	s.Generator(feed.ModeSimulation).Next(5)
	resp, body = post(t, ts.URL+"/api/reset/simulation", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["message"], "reset")
	assert.Equal(t, int64(0), s.Generator(feed.ModeSimulation).Stats().TotalProcessed)
}

func TestUnknownModeIs404(t *testing.T) {
	_, ts := newTestServer(t, "")
	for _, path := range []string{"/api/mode/batch/start", "/api/reset/nope"} {
		resp, body := post(t, ts.URL+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, body["detail"], "unknown mode")
	}
	resp, _ := post(t, ts.URL+"/api/mode/simulation/pause", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestControlRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, "s3cret")
	resp, _ := post(t, ts.URL+"/api/reset/simulation", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = post(t, ts.URL+"/api/reset/simulation", "s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, "")
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/reset/simulation", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) feed.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := feed.Decode(data)
	require.NoError(t, err)
	return env
}

func TestFeedSendsConnectedThenBatches(t *testing.T) {
	s, ts := newTestServer(t, "")
	conn := dial(t, ts, "/ws/real-model")

	hello := read(t, conn)
	assert.Equal(t, feed.MsgConnected, hello.Type)
	assert.Contains(t, hello.Message, "Real XGBoost Model")

	require.Eventually(t, func() bool {
		return s.streams[feed.ModeRealModel].bc.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Stopped modes stay quiet.
	s.Tick()
	s.Generator(feed.ModeRealModel).Start()
	s.Tick()

	env := read(t, conn)
	assert.Equal(t, feed.MsgBatch, env.Type)
	require.NotNil(t, env.BatchSize)
	assert.Equal(t, 4, *env.BatchSize)
	require.Len(t, env.Transactions, 4)
	assert.Contains(t, env.Transactions[0].ID, "REAL")
	require.NotNil(t, env.Stats)
	assert.Equal(t, int64(4), env.Stats.TotalProcessed)
}

func TestFeedModesAreIndependent(t *testing.T) {
	s, ts := newTestServer(t, "")
	sim := dial(t, ts, "/ws/simulation")
	read(t, sim)
	require.Eventually(t, func() bool {
		return s.streams[feed.ModeSimulation].bc.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	s.Generator(feed.ModeRealModel).Start()
	s.Tick()
	s.Generator(feed.ModeSimulation).Start()
	s.Tick()

	env := read(t, sim)
	require.NotEmpty(t, env.Transactions)
	assert.Contains(t, env.Transactions[0].ID, "TXN_SIM_")
	assert.Equal(t, int64(4), env.Stats.TotalProcessed, "first simulation batch")
}

func TestWebsocketRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, "s3cret")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/simulation"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
