package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports spec file changes under a set of directories, batched
// by a debounce period.
type Watcher struct {
	watcher       *fsnotify.Watcher
	debounceTime  time.Duration
	logger        *slog.Logger
	callback      func(files []string)
	cancel        context.CancelFunc
	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex
	stopOnce      sync.Once
	doneCh        chan struct{}
}

// NewWatcher watches dirs recursively. Missing directories are an error.
func NewWatcher(dirs []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		watcher:      fsw,
		debounceTime: debounce,
		logger:       logger,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}
	for _, dir := range dirs {
		if err := w.addDirectoriesRecursively(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching. callback runs on the watch goroutine with the
// sorted set of changed spec files; a slow callback delays later batches.
func (w *Watcher) Start(ctx context.Context, callback func(files []string)) {
	w.callback = callback
	ctx, w.cancel = context.WithCancel(ctx)
	go w.watch(ctx)
}

// Stop ends watching and waits for the watch goroutine. It is idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	fireCh := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if !shouldProcessEvent(event) {
				continue
			}

			w.accumulatedMu.Lock()
			w.accumulated[event.Name] = true
			w.accumulatedMu.Unlock()

			w.resetDebounceTimer(fireCh)

		case <-fireCh:
			w.fire()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) fire() {
	w.accumulatedMu.Lock()
	if len(w.accumulated) == 0 {
		w.accumulatedMu.Unlock()
		return
	}
	files := make([]string, 0, len(w.accumulated))
	for file := range w.accumulated {
		files = append(files, file)
	}
	w.accumulated = make(map[string]bool)
	w.accumulatedMu.Unlock()

	sort.Strings(files)
	if w.callback != nil {
		w.callback(files)
	}
}

func (w *Watcher) resetDebounceTimer(fireCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creates, removes and renames of spec files.
func shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return isSpecFile(event.Name)
}

func (w *Watcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			w.logger.Warn("error accessing path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

// Watch runs the pipeline once, then again after every batch of spec
// changes until ctx is cancelled. Run errors are logged, not returned, so
// a broken spec file does not end the session.
func (p *Pipeline) Watch(ctx context.Context, debounce time.Duration, onRun func(*Stats, error)) error {
	dirs := []string{p.cfg.SourceDir, p.cfg.TargetDir}
	if p.cfg.RulesFile != "" {
		dirs = append(dirs, filepath.Dir(p.cfg.RulesFile))
	}
	w, err := NewWatcher(dedupe(dirs), debounce, p.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	run := func() {
		stats, err := p.Run(ctx)
		if err != nil && ctx.Err() == nil {
			p.logger.Error("pipeline run failed", "error", err)
		}
		if onRun != nil {
			onRun(stats, err)
		}
	}

	run()
	out, _ := filepath.Abs(p.cfg.OutputDir)
	w.Start(ctx, func(files []string) {
		changed := 0
		for _, f := range files {
			// Our own rule export must not retrigger a run.
			if abs, err := filepath.Abs(f); err == nil && strings.HasPrefix(abs, out+string(filepath.Separator)) {
				continue
			}
			changed++
		}
		if changed == 0 {
			return
		}
		p.logger.Info("spec changes detected", "files", changed)
		run()
	})

	<-ctx.Done()
	return nil
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := dirs[:0]
	for _, d := range dirs {
		clean := filepath.Clean(d)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
