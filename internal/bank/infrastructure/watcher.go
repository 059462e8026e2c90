package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/log"
)

// defaultDebounce coalesces the burst of events editors emit on save.
const defaultDebounce = 200 * time.Millisecond

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the local bank file to watch.
	Path string
	// BankID is the registry id reloads are stored under.
	BankID string
	// Debounce delays a reload until events stop arriving. Defaults to 200ms.
	Debounce time.Duration
	// OnReload is called after every successful reload.
	OnReload func()
	// OnError is called when a reload fails.
	OnError func(error)
}

// Watcher reloads a local bank file into the registry whenever it changes.
// The parent directory is watched so atomic-rename saves are seen.
type Watcher struct {
	loader *application.Loader
	cfg    WatcherConfig
	fsw    *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a Watcher. Call Run to start watching.
func NewWatcher(loader *application.Loader, cfg WatcherConfig) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	path, err := LocalPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving watch path: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving watch path: %w", err)
	}
	cfg.Path = abs

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{loader: loader, cfg: cfg, fsw: fsw}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.cfg.Path
}

// Run performs an initial load, then reloads on change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.stopTimer()

	log.Info(log.CatWatch, "Watching bank file", "path", w.cfg.Path, "bank", w.cfg.BankID)
	w.reload(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.cfg.Path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			log.Debug(log.CatWatch, "Bank file changed", "path", ev.Name, "op", ev.Op.String())
			w.schedule(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatch, "Watcher error", err, "path", w.cfg.Path)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, func() { w.reload(ctx) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	opts := []application.LoadOption{
		application.OnError(func(err error) {
			if w.cfg.OnError != nil {
				w.cfg.OnError(err)
			}
		}),
	}
	if w.cfg.OnReload != nil {
		opts = append(opts, application.OnSuccess(w.cfg.OnReload))
	}
	w.loader.Load(ctx, w.cfg.Path, w.cfg.BankID, opts...)
}
