package server

import (
	"context"

	"github.com/basalt-ssg/basalt/internal/logging"
	"github.com/basalt-ssg/basalt/internal/watcher"
)

// BuildFunc regenerates the site output. Implementations report success or
// failure only; partial results are invisible to the loop.
type BuildFunc func(ctx context.Context) error

// RebuildLoop is the single consumer of the coalescer: it drains triggers
// one at a time and runs the build function synchronously, so rebuilds
// never overlap. A failed build is logged and absorbed; the loop keeps
// waiting for the next trigger.
type RebuildLoop struct {
	coalescer *watcher.Coalescer
	build     BuildFunc
	onSuccess func(ctx context.Context)
	logger    logging.Logger
}

// NewRebuildLoop creates a rebuild loop. onSuccess may be nil.
func NewRebuildLoop(coalescer *watcher.Coalescer, build BuildFunc, onSuccess func(ctx context.Context), logger logging.Logger) *RebuildLoop {
	return &RebuildLoop{
		coalescer: coalescer,
		build:     build,
		onSuccess: onSuccess,
		logger:    logger.WithComponent("rebuild"),
	}
}

// Run consumes triggers until ctx is cancelled. An in-flight build is never
// interrupted; cancellation takes effect at the next wait.
func (l *RebuildLoop) Run(ctx context.Context) {
	for {
		if err := l.coalescer.Wait(ctx); err != nil {
			return
		}

		l.logger.Info(ctx, "rebuilding site")
		if err := l.build(ctx); err != nil {
			l.logger.Error(ctx, err, "build failed")
			continue
		}
		if l.onSuccess != nil {
			l.onSuccess(ctx)
		}
	}
}
