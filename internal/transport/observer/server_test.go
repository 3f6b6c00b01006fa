package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portsim.ai/internal/observerproto"
	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/world"
)

func startWorld(t *testing.T) (*world.World, *httptest.Server) {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	require.NoError(t, err)
	w, err := world.New(world.WorldConfig{ID: "run-test", TickRateHz: 200, Seed: 1}, cats, world.Env{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	mux := http.NewServeMux()
	NewServer(w, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return w, srv
}

func TestBootstrap(t *testing.T) {
	_, srv := startWorld(t)

	resp, err := http.Get(srv.URL + BootstrapPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var boot observerproto.BootstrapResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&boot))
	assert.Equal(t, "run-test", boot.RunID)
	assert.Equal(t, observerproto.Version, boot.ProtocolVersion)
	assert.Len(t, boot.Slots, 7)
	assert.Equal(t, 200, boot.WorldParams.TickRateHz)

	post, err := http.Post(srv.URL+BootstrapPath, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestWS_StreamsTicks(t *testing.T) {
	_, srv := startWorld(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WSPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var last uint64
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, b, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg observerproto.TickMsg
		require.NoError(t, json.Unmarshal(b, &msg))
		assert.Equal(t, "TICK", msg.Type)
		assert.Len(t, msg.Slots, 7)
		assert.Len(t, msg.Digest, 64)
		if i > 0 {
			assert.Greater(t, msg.Tick, last)
		}
		last = msg.Tick
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	assert.True(t, isLoopbackRemote("127.0.0.1:5555"))
	assert.True(t, isLoopbackRemote("[::1]:80"))
	assert.False(t, isLoopbackRemote("10.1.2.3:80"))
	assert.False(t, isLoopbackRemote("garbage"))
}

func TestForbiddenRemote(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, BootstrapPath, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	s.BootstrapHandler()(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
