// Package watcher delivers coalesced rebuild triggers from filesystem
// change notifications under a basalt project tree.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/basalt-ssg/basalt/internal/logging"
)

// EventKind represents the type of file change.
type EventKind int

const (
	EventCreated EventKind = iota
	EventModified
	EventDeleted
	EventRenamed
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a classified filesystem change. Events are ephemeral: they
// exist only to decide that something changed, then feed the coalescer.
type ChangeEvent struct {
	Kind EventKind
	Path string
}

// ProjectWatcher watches a project tree recursively and signals the
// coalescer for every rule-accepted change.
type ProjectWatcher struct {
	root      string
	rules     Rules
	coalescer *Coalescer
	fsw       *fsnotify.Watcher
	logger    logging.Logger
	done      chan struct{}
}

// New creates a watcher rooted at the given project directory. Triggers for
// accepted changes are delivered through the coalescer.
func New(root string, rules Rules, coalescer *Coalescer, logger logging.Logger) (*ProjectWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ProjectWatcher{
		root:      root,
		rules:     rules,
		coalescer: coalescer,
		fsw:       fsw,
		logger:    logger.WithComponent("watcher"),
		done:      make(chan struct{}),
	}, nil
}

// Start registers watches for the project tree and begins delivering
// notifications on a dedicated goroutine. The watcher stops when ctx is
// cancelled or Stop is called.
func (w *ProjectWatcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		_ = w.fsw.Close()
		close(w.done)
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop ceases notification delivery and releases OS watch resources. Safe
// to call after Start; returns without waiting for in-flight events.
func (w *ProjectWatcher) Stop() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

// addRecursive registers the directory and all subdirectories, skipping
// denied subtrees so the output directory never consumes a watch slot.
func (w *ProjectWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr == nil && rel != "." {
			for _, deny := range w.rules.DenyDirs {
				if underDir(filepath.ToSlash(rel), deny) {
					return filepath.SkipDir
				}
			}
		}
		return w.fsw.Add(path)
	})
}

func (w *ProjectWatcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "watch error")
		}
	}
}

func (w *ProjectWatcher) handle(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	if !w.rules.Match(rel) {
		return
	}

	change := ChangeEvent{Kind: classify(event.Op), Path: rel}

	// A new directory inside an allowed subtree must be watched too, or
	// changes under it would go unseen.
	if change.Kind == EventCreated {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := w.addRecursive(event.Name); addErr != nil {
				w.logger.Warn(ctx, addErr, "could not watch new directory", "dir", rel)
			}
		}
	}

	w.logger.Debug(ctx, "change detected", "reason", change.Kind.String(), "path", change.Path)

	if w.coalescer.TrySignal() {
		w.logger.Info(ctx, "rebuild scheduled", "reason", change.Kind.String(), "path", change.Path)
	}
}

// classify converts fsnotify ops to the tagged event kind, matched
// exhaustively by precedence.
func classify(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated
	case op.Has(fsnotify.Remove):
		return EventDeleted
	case op.Has(fsnotify.Rename):
		return EventRenamed
	case op.Has(fsnotify.Write), op.Has(fsnotify.Chmod):
		return EventModified
	default:
		return EventModified
	}
}
