package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// FileSourceConfig configures a FileSource.
type FileSourceConfig struct {
	// Path is the state file the host shell rewrites on every transition.
	Path string

	// Debounce collapses the write bursts of one transition (default: 50ms).
	Debounce time.Duration

	// Clock drives the debouncer (default: real clock).
	Clock clockwork.Clock
}

// FileSource reports transitions written to a state file. The file holds
// a single state word such as "active" or "background".
type FileSource struct {
	listeners

	path     string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce *Debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileSource creates a file source. The directory holding the state
// file must exist; the file itself may appear later.
func NewFileSource(cfg FileSourceConfig, logger *slog.Logger) (*FileSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileSource{
		path:     filepath.Clean(cfg.Path),
		watcher:  watcher,
		logger:   logger,
		debounce: NewDebouncer(cfg.Debounce, cfg.Clock),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Available implements Source. It reports whether the state file's
// directory can be watched.
func (fs *FileSource) Available() bool {
	info, err := os.Stat(filepath.Dir(fs.path))
	return err == nil && info.IsDir()
}

// AddEventListener implements Source.
func (fs *FileSource) AddEventListener(event string, h Handler) error {
	return fs.add(event, h)
}

// Run watches the state file until ctx is cancelled or Stop is called.
func (fs *FileSource) Run(ctx context.Context) error {
	fs.mu.Lock()
	if fs.running {
		fs.mu.Unlock()
		return fmt.Errorf("file source already running")
	}
	fs.running = true
	fs.mu.Unlock()

	defer close(fs.doneCh)

	// Hosts usually replace the file atomically, so the directory is watched.
	if err := fs.watcher.Add(filepath.Dir(fs.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(fs.path), err)
	}

	fs.logger.Info("Lifecycle file source started", "path", fs.path)

	for {
		select {
		case <-ctx.Done():
			fs.logger.Info("Lifecycle file source stopped (context cancelled)")
			return nil

		case <-fs.stopCh:
			fs.logger.Info("Lifecycle file source stopped")
			return nil

		case event, ok := <-fs.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fs.shouldProcessEvent(event) {
				continue
			}

			fs.logger.Debug("State file event detected", "path", event.Name, "op", event.Op.String())
			fs.debounce.Trigger(fs.readAndDispatch)

		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fs.logger.Error("State file watcher error", "error", err)
		}
	}
}

// Stop stops a running source and releases the watcher.
func (fs *FileSource) Stop() error {
	fs.mu.Lock()
	running := fs.running
	fs.running = false
	fs.mu.Unlock()

	fs.debounce.Stop()

	if running {
		close(fs.stopCh)
		<-fs.doneCh
	}

	if err := fs.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (fs *FileSource) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fs.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (fs *FileSource) readAndDispatch() {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		fs.logger.Warn("Failed to read state file", "path", fs.path, "error", err)
		return
	}

	state := ParseState(string(data))
	if state == "" {
		return
	}
	fs.dispatch(state)
}
