package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/scaffolding"
)

// newServeProject scaffolds a project with one published page and one
// draft, returning its configuration.
func newServeProject(t *testing.T) *config.Config {
	t.Helper()

	projectDir, err := scaffolding.CreateProject(scaffolding.ProjectOptions{
		Dir:      filepath.Join(t.TempDir(), "site"),
		Name:     "Serve Test",
		URL:      "https://serve.example",
		Author:   "tester",
		Language: "en",
	})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "source", ".drafts"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(projectDir, "source", "hello.md"),
		[]byte("---\ntitle: \"Hello World\"\n---\n# Greetings\n\nrendered body\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(projectDir, "source", ".drafts", "wip.md"),
		[]byte("---\ntitle: \"Work In Progress\"\n---\ndraft body\n"), 0o644))

	cfg, err := config.LoadFrom(filepath.Join(projectDir, config.ConfigFileName))
	require.NoError(t, err)
	return cfg
}

// startController runs a controller on an ephemeral port and returns its
// base URL plus a stopper that waits for a clean exit.
func startController(t *testing.T, cfg *config.Config, opts Options) (*Controller, string, func() error) {
	t.Helper()

	opts.Host = "127.0.0.1"
	opts.HandleSignals = false
	ctrl := NewController(cfg, opts, newTestLogger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Run(context.Background())
	}()

	select {
	case <-ctrl.Ready():
	case err := <-errCh:
		t.Fatalf("controller exited before becoming ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not become ready")
	}

	stop := func() error {
		ctrl.Stop()
		select {
		case err := <-errCh:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("controller did not stop")
			return nil
		}
	}
	return ctrl, "http://" + ctrl.Addr(), stop
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServeRendersPrebuiltSite(t *testing.T) {
	cfg := newServeProject(t)
	_, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true})
	defer stop()

	status, body := get(t, base+"/hello-world.html")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "rendered body")

	// The page is well-formed HTML with the heading rendered from
	// Markdown.
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, hasElementWithText(doc, "h1", "Greetings"))

	status, _ = get(t, base+"/no-such-page.html")
	assert.Equal(t, http.StatusNotFound, status)
}

func hasElementWithText(n *html.Node, tag, text string) bool {
	if n.Type == html.ElementNode && n.Data == tag {
		if c := n.FirstChild; c != nil && c.Type == html.TextNode && strings.Contains(c.Data, text) {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasElementWithText(c, tag, text) {
			return true
		}
	}
	return false
}

func TestServeDraftsToggleAcrossInvocations(t *testing.T) {
	cfg := newServeProject(t)
	ctrl, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true})
	defer stop()

	status, _ := get(t, base+"/work-in-progress.html")
	require.Equal(t, http.StatusNotFound, status, "draft must not be served with drafts off")

	// Simulate the out-of-band `basalt serve drafts` invocation.
	state, err := LoadRunState(ctrl.RunStatePath())
	require.NoError(t, err)
	require.NotNil(t, state)
	require.False(t, state.DraftsEnabled)
	state.Toggle(nil)
	require.NoError(t, state.Persist())

	// The toggle takes effect on the next triggered rebuild; touching a
	// source schedules one.
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.SourcesDir(), "hello.md"),
		[]byte("---\ntitle: \"Hello World\"\n---\n# Greetings\n\nrendered body v2\n"), 0o644))

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/work-in-progress.html")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 100*time.Millisecond, "draft should appear after the toggled rebuild")
}

func TestServeRebuildOnSourceChange(t *testing.T) {
	cfg := newServeProject(t)
	_, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true})
	defer stop()

	status, body := get(t, base+"/hello-world.html")
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, body, "updated body")

	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.SourcesDir(), "hello.md"),
		[]byte("---\ntitle: \"Hello World\"\n---\nupdated body\n"), 0o644))

	require.Eventually(t, func() bool {
		_, latest := get(t, base+"/hello-world.html")
		return strings.Contains(latest, "updated body")
	}, 10*time.Second, 100*time.Millisecond)
}

func TestServeShutdownCleansUp(t *testing.T) {
	cfg := newServeProject(t)
	ctrl, base, stop := startController(t, cfg, Options{PreBuild: true, Clean: true})

	addr := strings.TrimPrefix(base, "http://")
	require.Equal(t, StateRunning, ctrl.State())

	require.NoError(t, stop())
	assert.Equal(t, StateStopped, ctrl.State())

	// Run-state file removed.
	_, err := os.Stat(ctrl.RunStatePath())
	assert.True(t, os.IsNotExist(err))

	// Port free again immediately after.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	_ = ln.Close()
}

func TestServeFatalOnPortConflict(t *testing.T) {
	cfg := newServeProject(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	ctrl := NewController(cfg, Options{Host: "127.0.0.1", Port: port}, newTestLogger())
	err = ctrl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", port))

	// Partial-start failure leaves no run-state file behind.
	_, statErr := os.Stat(ctrl.RunStatePath())
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, StateStopped, ctrl.State())
}

func TestServeStopsAfterListenerFailure(t *testing.T) {
	cfg := newServeProject(t)
	ctrl := NewController(cfg, Options{Host: "127.0.0.1", PreBuild: true, Clean: true}, newTestLogger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Run(context.Background())
	}()
	select {
	case <-ctrl.Ready():
	case err := <-errCh:
		t.Fatalf("controller exited before becoming ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not become ready")
	}

	// Kill the listener out from under the server. Run must wind down on
	// its own instead of waiting for a Stop that never comes.
	require.NoError(t, ctrl.httpSrv.listener.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}

	assert.Equal(t, StateStopped, ctrl.State())
	_, statErr := os.Stat(ctrl.RunStatePath())
	assert.True(t, os.IsNotExist(statErr), "run-state file must be removed on failure exit")
}

func TestServeStartsWithoutPreBuild(t *testing.T) {
	cfg := newServeProject(t)
	_, base, stop := startController(t, cfg, Options{PreBuild: false})
	defer stop()

	// Nothing built yet: everything 404s, but the server is up.
	status, _ := get(t, base+"/hello-world.html")
	assert.Equal(t, http.StatusNotFound, status)
}
