package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a rules file or directory and reports changes.
// It implements debouncing so an editor save produces one callback.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *FileWatcherConfig
	debounce *Debouncer

	// target is the absolute path of a single watched file; empty in
	// directory mode
	target string

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// FileWatcherConfig contains configuration for the file watcher.
type FileWatcherConfig struct {
	// Path is the file or directory to watch
	Path string

	// DebounceInterval is the time to wait before triggering a reload
	// after detecting file changes (default: 100ms)
	DebounceInterval time.Duration

	// Extensions is the list of file extensions to watch in directory mode
	Extensions []string

	// SkipHidden controls whether to skip hidden files and directories
	SkipHidden bool
}

// DefaultFileWatcherConfig returns the default watcher configuration.
func DefaultFileWatcherConfig() *FileWatcherConfig {
	return &FileWatcherConfig{
		DebounceInterval: 100 * time.Millisecond,
		Extensions:       DefaultLoaderConfig().AllowedExtensions,
		SkipHidden:       true,
	}
}

// NewFileWatcher creates a new file watcher.
func NewFileWatcher(config *FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if config == nil {
		config = DefaultFileWatcherConfig()
	}

	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		logger:   logger,
		config:   config,
		debounce: NewDebouncer(config.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching for file changes and calls onChange with the last
// change of each debounced burst. It blocks until the context is cancelled
// or Stop is called. A watcher can be started once.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func(FileChange) error) error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return errors.New("watcher stopped")
	}
	if fw.started {
		fw.mu.Unlock()
		return errors.New("watcher already started")
	}
	fw.started = true
	fw.mu.Unlock()

	defer func() {
		fw.debounce.Stop()
		if err := fw.watcher.Close(); err != nil {
			fw.logger.Warn("Failed to close fsnotify watcher", "error", err)
		}
		close(fw.doneCh)
	}()

	if err := fw.addPath(fw.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	fw.logger.Info("File watcher started",
		"path", fw.config.Path,
		"debounce_ms", fw.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("File watcher stopped (context cancelled)")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("File watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			if !fw.shouldProcessEvent(event) {
				continue
			}

			change := FileChange{
				Type:      changeType(event.Op),
				FilePath:  event.Name,
				Timestamp: time.Now(),
			}

			fw.logger.Debug("File event detected",
				"path", event.Name,
				"op", event.Op.String(),
			)

			fw.debounce.Trigger(func() {
				fw.logger.Info("Rules file changed",
					"path", change.FilePath,
					"change", change.Type.String(),
				)

				if err := onChange(change); err != nil {
					fw.logger.Error("Change handler failed", "error", err)
				}
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}

			fw.logger.Error("File watcher error", "error", err)
		}
	}
}

// Stop stops the file watcher and waits for Watch to return.
// It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.stopped = true
	started := fw.started
	fw.mu.Unlock()

	close(fw.stopCh)

	if started {
		<-fw.doneCh
		return nil
	}

	fw.debounce.Stop()
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// addPath adds a file or directory to the watcher. A file is watched through
// its parent directory so that rename-and-replace saves are seen.
func (fw *FileWatcher) addPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	isDir, err := isDirectory(abs)
	if err != nil {
		return err
	}

	if isDir {
		return fw.addDirectory(abs)
	}

	fw.target = abs
	return fw.watcher.Add(filepath.Dir(abs))
}

// addDirectory adds a directory and all subdirectories to the watcher.
func (fw *FileWatcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != dir && fw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		fw.logger.Debug("Watching directory", "path", path)

		return nil
	})
}

// shouldProcessEvent determines if an event should trigger a reload.
func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if fw.target != "" {
		return filepath.Clean(event.Name) == fw.target
	}

	base := filepath.Base(event.Name)
	hidden := strings.HasPrefix(base, ".")

	if event.Has(fsnotify.Create) {
		if isDir, err := isDirectory(event.Name); err == nil && isDir {
			if fw.config.SkipHidden && hidden {
				return false
			}
			if err := fw.addDirectory(event.Name); err != nil {
				fw.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !fw.hasValidExtension(ext) {
		return false
	}

	// dotfiles named exactly like an extension, e.g. .cursorrules
	if fw.config.SkipHidden && hidden && ext != strings.ToLower(base) {
		return false
	}

	return true
}

// hasValidExtension checks if a file extension should be watched.
func (fw *FileWatcher) hasValidExtension(ext string) bool {
	for _, validExt := range fw.config.Extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

func changeType(op fsnotify.Op) FileChangeType {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return FileChangeDelete
	case op.Has(fsnotify.Create):
		return FileChangeCreate
	default:
		return FileChangeModify
	}
}

// Debouncer implements event debouncing to prevent reload storms.
// It collects rapid events and triggers the callback only after a quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger records callback as the pending action and restarts the quiet
// period. Only the callback from the last Trigger of a burst runs.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		cb := d.callback
		d.callback = nil
		d.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}

func isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
