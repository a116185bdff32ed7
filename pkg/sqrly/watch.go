package sqrly

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchPattern selects watched files, relative to the watch root.
const WatchPattern = "**/*.sql"

// ChangeFunc is called with the absolute path of a created or modified file.
type ChangeFunc func(ctx context.Context, path string)

// Watcher observes a directory tree for .sql files being created or
// modified. Files that already exist when Run starts are not reported.
//
// Callbacks run one at a time on a single goroutine, so a slow callback never
// overlaps with the next one. Events for a path that is already waiting to be
// delivered are merged into the pending delivery.
type Watcher struct {
	root   string
	logger zerolog.Logger

	// ready, when set, is called once the initial tree is registered.
	ready func()
}

// NewWatcher returns a Watcher rooted at root.
func NewWatcher(root string, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to watch %s: not a directory", root)
	}
	return &Watcher{root: abs, logger: logger}, nil
}

// Pattern returns the glob being watched, for display.
func (w *Watcher) Pattern() string {
	return filepath.Join(w.root, filepath.FromSlash(WatchPattern))
}

// Matches reports whether path falls under the watched glob.
func (w *Watcher) Matches(path string) bool {
	if !within(w.root, path) {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(WatchPattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// Run watches until ctx is cancelled, calling fn for each change. It
// returns nil on cancellation and an error if watching cannot continue.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root, nil); err != nil {
		return err
	}
	w.logger.Info().Str("pattern", w.Pattern()).Msg("monitoring changes")
	if w.ready != nil {
		w.ready()
	}

	return w.loop(ctx, fsw, fsw.Events, fsw.Errors, fn)
}

// loop dispatches events until ctx is cancelled or a channel closes. The
// delivery goroutine is stopped and waited for on every return.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, events <-chan fsnotify.Event, errs <-chan error, fn ChangeFunc) error {
	pending := newPathQueue()
	deliverCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.deliver(deliverCtx, pending, fn)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("file watcher closed unexpectedly")
			}
			w.handle(fsw, ev, pending)
		case err, ok := <-errs:
			if !ok {
				return fmt.Errorf("file watcher closed unexpectedly")
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event, pending *pathQueue) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		// Already gone again.
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			// Files written before the new directory was registered would
			// otherwise be missed.
			if err := w.addTree(fsw, ev.Name, pending); err != nil {
				w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("failed to watch new directory")
			}
		}
		return
	}
	if w.Matches(ev.Name) {
		pending.push(ev.Name)
	}
}

// addTree registers dir and every directory below it. When found is non-nil,
// matching files discovered during the walk are queued.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, found *pathQueue) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if !d.IsDir() {
			if found != nil && w.Matches(path) {
				found.push(path)
			}
			return nil
		}
		if d.Name() == ".git" && path != w.root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) deliver(ctx context.Context, pending *pathQueue, fn ChangeFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending.ready:
		}
		for _, path := range pending.drain() {
			if ctx.Err() != nil {
				return
			}
			fn(ctx, path)
		}
	}
}

// pathQueue is an insertion-ordered set of paths awaiting delivery.
type pathQueue struct {
	mu     sync.Mutex
	paths  []string
	queued map[string]struct{}
	ready  chan struct{}
}

func newPathQueue() *pathQueue {
	return &pathQueue{
		queued: make(map[string]struct{}),
		ready:  make(chan struct{}, 1),
	}
}

func (q *pathQueue) push(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[path]; ok {
		return
	}
	q.queued[path] = struct{}{}
	q.paths = append(q.paths, path)
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *pathQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	paths := q.paths
	q.paths = nil
	q.queued = make(map[string]struct{})
	return paths
}
