package server

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-ssg/basalt/internal/logging"
)

func TestReloadHubBroadcastsAfterRebuild(t *testing.T) {
	cfg := newServeProject(t)
	_, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true, EnableReload: true})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + base[len("http"):] + ReloadPath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Touch a source to trigger a rebuild; a successful build must push a
	// reload notification.
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.SourcesDir(), "hello.md"),
		[]byte("---\ntitle: \"Hello World\"\n---\nreload me\n"), 0o644))

	typ, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.JSONEq(t, `{"type":"reload"}`, string(payload))
}

// The access-log middleware must not get in the way of the websocket
// upgrade: its recorder has to expose the underlying writer so the
// hijack reaches the real connection.
func TestReloadUpgradeThroughAccessLog(t *testing.T) {
	logger := logging.NewLogger(&logging.Config{Level: logging.LevelWarn, Format: "text", Output: io.Discard})
	hub := NewReloadHub(logger)
	defer hub.Close()

	srv := httptest.NewServer(accessLog(hub, logger, false))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	require.NoError(t, err, "upgrade must succeed behind the logging middleware")
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The handler registers the connection just after the handshake;
	// wait for it before broadcasting.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(ctx)

	typ, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.JSONEq(t, `{"type":"reload"}`, string(payload))
}

func TestReloadEndpointAbsentWhenDisabled(t *testing.T) {
	cfg := newServeProject(t)
	_, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true, EnableReload: false})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + base[len("http"):] + ReloadPath
	_, _, err := websocket.Dial(ctx, wsURL, nil)
	assert.Error(t, err, "reload endpoint must not be served when disabled")
}
