package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leapstack-labs/leapbundle/internal/watch"
	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// watching is the handle of an active watch.
type watching struct {
	cancel  context.CancelFunc
	watcher *watch.Watcher
	done    chan struct{}

	once sync.Once
	err  error
}

// Close stops the watch and waits for an in-flight pass to finish.
func (w *watching) Close() error {
	w.once.Do(func() {
		w.cancel()
		w.err = w.watcher.Close()
		<-w.done
	})
	return w.err
}

// Watch runs an initial pass and then one pass per debounced batch of
// changes under the entry module's directory and opts.Paths. onResult is
// called after every pass, never concurrently. A pass interrupted by
// Close is not reported.
func (c *Compiler) Watch(opts core.WatchOptions, onResult func(*core.Result, error)) (core.WatchHandle, error) {
	if onResult == nil {
		return nil, fmt.Errorf("watch requires a result callback")
	}

	debounce := opts.DebounceMs
	if debounce == 0 {
		debounce = c.cfg.DebounceMs()
	}
	if debounce < 0 {
		return nil, fmt.Errorf("debounce must not be negative (got %d)", debounce)
	}
	window := time.Duration(debounce) * time.Millisecond

	dirs, err := c.watchDirs(opts.Paths)
	if err != nil {
		return nil, err
	}

	w, err := watch.New(watch.Config{
		Dirs:   dirs,
		Ignore: []string{c.outDir},
		Logger: c.logger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &watching{cancel: cancel, watcher: w, done: make(chan struct{})}

	pass := func() {
		res, err := c.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		onResult(res, err)
	}

	go w.Run(ctx)
	go func() {
		defer close(h.done)
		pass()
		watch.Debounce(ctx, w.Changes(), window, func(changed []string) {
			c.logger.Debug("change detected", "files", changed)
			pass()
		})
	}()

	c.logger.Info("watching", "dirs", dirs, "debounce", window)
	return h, nil
}

// watchDirs returns the directories to watch: the entry module's directory
// plus any configured extra paths.
func (c *Compiler) watchDirs(extra []string) ([]string, error) {
	paths := extra
	if len(paths) == 0 && c.cfg.Watch != nil {
		paths = c.cfg.Watch.Paths
	}

	entryDir := filepath.Dir(filepath.Join(c.root, filepath.FromSlash(c.cfg.EntryPath)))
	if abs, err := resolveEntry(c.root, c.cfg.EntryPath); err == nil {
		entryDir = filepath.Dir(abs)
	}

	seen := make(map[string]struct{})
	var dirs []string
	for _, d := range append([]string{entryDir}, paths...) {
		if !filepath.IsAbs(d) {
			d = filepath.Join(c.root, d)
		}
		d = filepath.Clean(d)
		if _, ok := seen[d]; ok {
			continue
		}
		info, err := os.Stat(d)
		if err != nil {
			return nil, fmt.Errorf("cannot watch %s: %w", d, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("cannot watch %s: not a directory", d)
		}
		seen[d] = struct{}{}
		dirs = append(dirs, d)
	}
	return dirs, nil
}
