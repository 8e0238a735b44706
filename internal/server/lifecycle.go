package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/basalt-ssg/basalt/internal/config"
	"github.com/basalt-ssg/basalt/internal/errors"
	"github.com/basalt-ssg/basalt/internal/logging"
	"github.com/basalt-ssg/basalt/internal/site"
	"github.com/basalt-ssg/basalt/internal/watcher"
)

// State is the lifecycle phase of the controller.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configure a dev server run.
type Options struct {
	Host string
	Port int

	// PreBuild runs one synchronous build before serving.
	PreBuild bool

	// WithDrafts is the initial drafts setting, persisted to the run-state
	// file.
	WithDrafts bool

	// Clean passes through to every build.
	Clean bool

	// EnableReload serves the live-reload websocket endpoint.
	EnableReload bool

	// HandleSignals installs SIGINT/SIGTERM handlers. Tests disable this
	// and stop the controller with Stop instead.
	HandleSignals bool

	// UseColor enables ANSI coloring of the access log.
	UseColor bool

	// OpenBrowser opens the served URL in the system browser once the
	// server is up.
	OpenBrowser bool
}

// Controller wires run state, watcher, rebuild loop and HTTP server
// together and guarantees orderly startup and shutdown.
type Controller struct {
	cfg    *config.Config
	opts   Options
	logger logging.Logger

	state    atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}

	// set during Run, read by tests
	httpSrv *HTTPServer
	ready   chan struct{}
}

// NewController creates a controller in the idle state.
func NewController(cfg *config.Config, opts Options, logger logging.Logger) *Controller {
	c := &Controller{
		cfg:    cfg,
		opts:   opts,
		logger: logger.WithComponent("serve"),
		stopCh: make(chan struct{}),
		ready:  make(chan struct{}),
	}
	c.state.Store(int32(StateIdle))
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Stop requests shutdown. Safe to call from any goroutine, more than once,
// and regardless of signal handling being enabled.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Ready is closed once the server is accepting requests.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Addr returns the bound listen address once Ready.
func (c *Controller) Addr() string {
	return c.httpSrv.Addr()
}

// RunStatePath returns the path of the run-state file, so callers can
// verify or retry its removal after shutdown.
func (c *Controller) RunStatePath() string {
	return c.cfg.RunStateFile()
}

// Run starts the dev server and blocks until shutdown completes. Startup
// failures tear down everything already started before returning; a
// signal- or Stop-triggered shutdown returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.state.Store(int32(StateStarting))

	// Bind first: a port conflict must fail before any other side effect.
	var hub *ReloadHub
	if c.opts.EnableReload {
		hub = NewReloadHub(c.logger)
	}
	httpSrv, err := NewHTTPServer(c.opts.Host, c.opts.Port, c.cfg.TargetDir(), hub, c.logger, c.opts.UseColor)
	if err != nil {
		c.state.Store(int32(StateStopped))
		return err
	}
	c.httpSrv = httpSrv

	runState, err := WriteRunState(c.cfg.RunStateFile(), c.opts.WithDrafts)
	if err != nil {
		_ = httpSrv.Close()
		c.state.Store(int32(StateStopped))
		return err
	}

	builder := site.NewBuilder(c.logger)
	buildFn := c.makeBuildFunc(builder)

	if c.opts.PreBuild {
		if buildErr := buildFn(ctx); buildErr != nil {
			// A broken site is not fatal for the dev loop; serve whatever
			// output exists and retry on the next change.
			c.logger.Error(ctx, buildErr, "initial build failed")
		}
	}

	coalescer := watcher.NewCoalescer()
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()

	w, err := watcher.New(c.cfg.ProjectDir, watcher.DefaultRules(), coalescer, c.logger)
	if err == nil {
		err = w.Start(watchCtx)
	}
	if err != nil {
		_ = httpSrv.Close()
		if rmErr := runState.Remove(); rmErr != nil {
			c.logger.Warn(ctx, rmErr, "could not remove run-state file", "path", runState.Path)
		}
		c.state.Store(int32(StateStopped))
		return errors.IO("could not start watching the project", err)
	}

	var onSuccess func(context.Context)
	if hub != nil {
		onSuccess = hub.Broadcast
	}
	loop := NewRebuildLoop(coalescer, buildFn, onSuccess, c.logger)
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()

	// Signals only request shutdown; all teardown happens synchronously
	// below.
	signalCtx := ctx
	if c.opts.HandleSignals {
		var stopSignals context.CancelFunc
		signalCtx, stopSignals = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stopSignals()
	}

	c.state.Store(int32(StateRunning))
	c.logger.Info(ctx, "dev server listening", "addr", "http://"+httpSrv.Addr())

	if c.opts.OpenBrowser {
		go c.openBrowser(ctx, "http://"+httpSrv.Addr())
	}

	g := &errgroup.Group{}
	g.Go(func() error {
		loop.Run(loopCtx)
		return nil
	})
	g.Go(func() error {
		// A Serve failure outside graceful shutdown must still drive the
		// teardown path, or the other goroutines would wait forever.
		sErr := httpSrv.Serve()
		if sErr != nil {
			c.Stop()
		}
		return sErr
	})
	g.Go(func() error {
		select {
		case <-signalCtx.Done():
		case <-c.stopCh:
		}

		c.state.Store(int32(StateStopping))
		c.logger.Info(ctx, "shutting down")

		// Ordered teardown: reject new requests first, then stop event
		// delivery, then let the rebuild loop drain. An in-flight build is
		// never cancelled; cancelLoop takes effect at the loop's next wait.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if sErr := httpSrv.Shutdown(shutdownCtx); sErr != nil {
			c.logger.Warn(ctx, sErr, "http shutdown did not complete cleanly")
		}
		if hub != nil {
			hub.Close()
		}
		if wErr := w.Stop(); wErr != nil {
			c.logger.Warn(ctx, wErr, "watcher stop reported an error")
		}
		cancelWatch()
		cancelLoop()
		return nil
	})

	close(c.ready)
	err = g.Wait()

	if rmErr := runState.Remove(); rmErr != nil {
		// Not fatal for process exit; the caller has RunStatePath to retry.
		c.logger.Warn(ctx, rmErr, "could not remove run-state file", "path", runState.Path)
	}
	c.state.Store(int32(StateStopped))
	c.logger.Info(ctx, "dev server stopped")

	return err
}

func (c *Controller) openBrowser(ctx context.Context, url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	if err != nil {
		c.logger.Warn(ctx, err, "could not open browser", "url", url)
	}
}

// makeBuildFunc composes run-state lookup, config reload and the site build
// into the loop's build function. The drafts setting is re-read on every
// trigger so out-of-band toggles take effect on the next rebuild.
func (c *Controller) makeBuildFunc(builder *site.Builder) BuildFunc {
	return func(ctx context.Context) error {
		drafts := c.opts.WithDrafts
		if state, err := LoadRunState(c.cfg.RunStateFile()); err == nil && state != nil {
			drafts = state.DraftsEnabled
		}

		cfg, err := c.cfg.Reload()
		if err != nil {
			// A half-saved config file should not kill the loop either.
			c.logger.Warn(ctx, err, "config reload failed, using previous config")
			cfg = c.cfg
		}

		buildErr := builder.Build(ctx, cfg, site.BuildOptions{
			Clean:      c.opts.Clean,
			WithDrafts: drafts,
		})
		if buildErr != nil && hasExistingBuild(c.cfg.TargetDir()) {
			return fmt.Errorf("%w (keeping current build)", buildErr)
		}
		return buildErr
	}
}

// hasExistingBuild reports whether the output directory has any content to
// keep serving.
func hasExistingBuild(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
