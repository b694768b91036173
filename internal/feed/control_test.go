package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	path   string
	auth   string
}

func newControlServer(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedCall) {
	t.Helper()
	calls := make(chan recordedCall, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- recordedCall{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestControlStartStopPaths(t *testing.T) {
	srv, calls := newControlServer(t, http.StatusOK, `{"status":"ok"}`)
	c := NewControlClient(srv.URL+"/", "", 0)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, ModeSimulation))
	require.NoError(t, c.Stop(ctx, ModeRealModel))

	first := <-calls
	assert.Equal(t, http.MethodPost, first.method)
	assert.Equal(t, "/api/mode/simulation/start", first.path)

	second := <-calls
	assert.Equal(t, "/api/mode/real_model/stop", second.path)
}

func TestControlResetReturnsMessage(t *testing.T) {
	srv, calls := newControlServer(t, http.StatusOK, `{"message":"real_model stats reset"}`)
	c := NewControlClient(srv.URL, "secret", time.Second)

	msg, err := c.Reset(context.Background(), ModeRealModel)
	require.NoError(t, err)
	assert.Equal(t, "real_model stats reset", msg)

	call := <-calls
	assert.Equal(t, "/api/reset/real_model", call.path)
	assert.Equal(t, "Bearer secret", call.auth)
}

func TestControlNonSuccessStatus(t *testing.T) {
	srv, _ := newControlServer(t, http.StatusInternalServerError, `boom`)
	c := NewControlClient(srv.URL, "", time.Second)

	_, err := c.Reset(context.Background(), ModeSimulation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")

	assert.Error(t, c.Start(context.Background(), ModeSimulation))
}

func TestControlResetBadBody(t *testing.T) {
	srv, _ := newControlServer(t, http.StatusOK, `not json`)
	c := NewControlClient(srv.URL, "", time.Second)

	_, err := c.Reset(context.Background(), ModeSimulation)
	assert.Error(t, err)
}

func TestControlNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewControlClient(url, "", time.Second)
	_, err := c.Reset(context.Background(), ModeSimulation)
	assert.Error(t, err)
}

func TestControlHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewControlClient(srv.URL, "", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Stop(ctx, ModeSimulation)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
