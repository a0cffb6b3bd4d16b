package serve

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/eager/log"
)

// DefaultDebounce is how long a burst of file events must be quiet before
// the rules are reloaded.
const DefaultDebounce = 250 * time.Millisecond

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Watch calls reload whenever one of files changes, once per burst of events
// separated by less than debounce. The directories holding files are watched
// so that files replaced by rename are still seen.
//
// Reload errors are logged; the previous rules stay in effect. Close the
// returned closer to stop watching.
func Watch(
	ctx context.Context,
	files []string,
	debounce time.Duration,
	reload func(context.Context) error,
	logger log.Logger,
) (io.Closer, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watched := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{}, len(files))

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}

		watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()

			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}

				return

			case <-timerC:
				timerC = nil

				if err := reload(ctx); err != nil {
					logger.ErrorContext(ctx, "reload failed", slog.Any("error", err))

					continue
				}

				logger.InfoContext(ctx, "rules reloaded", slog.Int("files", len(watched)))

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.WarnContext(ctx, "watcher error", slog.Any("error", err))

			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !shouldTriggerReload(evt, watched) {
					continue
				}

				logger.TraceContext(ctx, "rules changed",
					slog.String("file", evt.Name),
					slog.String("op", evt.Op.String()),
				)

				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}

					timer.Reset(debounce)
				}

				timerC = timer.C
			}
		}
	}()

	logger.DebugContext(ctx, "watching rules",
		slog.Int("files", len(watched)),
		slog.Duration("debounce", debounce),
	)

	return closerFunc(func() error {
		cancel()
		err := watcher.Close()
		<-done

		return err
	}), nil
}

// shouldTriggerReload reports whether evt changes one of the watched files.
func shouldTriggerReload(evt fsnotify.Event, watched map[string]struct{}) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}

	if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Write) &&
		!evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
		return false
	}

	if strings.HasPrefix(filepath.Base(evt.Name), ".") {
		return false
	}

	abs, err := filepath.Abs(evt.Name)
	if err != nil {
		return false
	}

	_, ok := watched[abs]

	return ok
}
