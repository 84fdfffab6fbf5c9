package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

type WatchConfig struct {
	Roots       []string      // directories to watch; not recursive
	InitialScan bool          // if true, emit checklists already present
	Debounce    time.Duration // a file is emitted once it has been quiet this long
}

// Watch emits checklist PDF and text files as they appear under the roots.
// Scanners often write a file in several bursts, so each path is held until no
// event touched it for the debounce period. Both channels close when ctx ends.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan Source, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	var initial []Source
	for _, r := range cfg.Roots {
		if err := w.Add(r); err != nil {
			logger.Error("failed to watch root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
		if cfg.InitialScan {
			srcs, _, err := ScanDirectory(r, true)
			if err != nil {
				_ = w.Close()
				return nil, nil, err
			}
			for _, s := range srcs {
				if s.Kind != KindDir {
					initial = append(initial, s)
				}
			}
		}
	}

	evCh := make(chan Source, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		emit := func(s Source) bool {
			select {
			case evCh <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, s := range initial {
			if !emit(s) {
				return
			}
		}

		pending := map[string]time.Time{}
		tick := time.NewTicker(cfg.Debounce / 2)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 || IsHidden(e.Name) {
					continue
				}
				switch constants.MapExtToFormat(filepath.Ext(e.Name)) {
				case constants.PDF, constants.TEXT:
					pending[e.Name] = time.Now()
				}
			case now := <-tick.C:
				for p, last := range pending {
					if now.Sub(last) < cfg.Debounce {
						continue
					}
					delete(pending, p)
					if _, err := os.Stat(p); err != nil {
						continue
					}
					src, err := SourceFromPath(p)
					if err != nil {
						logger.Warn("watcher.skip", "path", p, "error", err)
						continue
					}
					logger.Info("watcher.checklist.ready", "path", p, "checklist_id", src.ChecklistID)
					if !emit(src) {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
