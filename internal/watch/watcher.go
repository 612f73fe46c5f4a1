// Package watch reloads class definition files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/util"
)

// DefaultDebounce is used when New is given a zero wait.
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc handles a batch of changed files. It runs on the watcher's
// worker, one batch at a time.
type ChangeFunc func(ctx context.Context, changed []string) error

// FileWatcher monitors a fixed set of files and reports changes in batches
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     []string
	onChange ChangeFunc

	debounce *util.Debouncer
	worker   *util.Deferrer

	mu      sync.Mutex
	pending map[string]struct{}

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher for paths. Changes are collected until no event has
// arrived for wait, then handed to onChange.
func New(paths []string, wait time.Duration, onChange ChangeFunc) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if wait <= 0 {
		wait = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]bool, len(paths)),
		onChange: onChange,
		worker:   util.NewDeferrer(8),
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		fw.files[abs] = true
		// watch directories so editors that replace files by rename are seen
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			fw.dirs = append(fw.dirs, dir)
		}
	}
	sort.Strings(fw.dirs)

	fw.debounce = util.Debounce(wait, fw.flush)
	return fw, nil
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		logging.L().Debug("watching directory", zap.String("dir", dir))
	}

	fw.worker.Start()
	fw.wg.Add(1)
	go fw.watch()
	return nil
}

// Stop stops the file watcher. Pending changes are dropped; a batch already
// handed to onChange finishes first.
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}

	fw.wg.Wait()
	fw.debounce.Stop()
	fw.worker.Shutdown()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			logging.L().Debug("definition file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			fw.mu.Lock()
			fw.pending[filepath.Clean(event.Name)] = struct{}{}
			fw.mu.Unlock()
			fw.debounce.Trigger()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.L().Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// flush hands the collected changes to the worker.
func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	if len(fw.pending) == 0 {
		fw.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(fw.pending))
	for f := range fw.pending {
		changed = append(changed, f)
	}
	fw.pending = make(map[string]struct{})
	fw.mu.Unlock()

	sort.Strings(changed)
	err := fw.worker.Defer("reload", func(ctx context.Context) error {
		return fw.onChange(ctx, changed)
	})
	if err != nil {
		logging.L().Debug("change batch dropped", zap.Strings("files", changed), zap.Error(err))
	}
}
