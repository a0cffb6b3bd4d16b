package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ardnew/eager/cli/cmd/serve"
	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 5 * time.Second

// Serve answers expansion requests over HTTP.
type Serve struct {
	Addr     string        `default:"127.0.0.1:8080" help:"Listen address."`
	Watch    bool          `default:"true"           help:"Reload rule files when they change." negatable:""`
	Debounce time.Duration `default:"250ms"          help:"Quiet period before reloading."`
}

// Run executes the serve command.
func (s *Serve) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := workspaceFrom(ctx)

	reg, err := ws.Registry(ctx)
	if err != nil {
		return err
	}

	if s.Watch && len(ws.RuleFiles) > 0 {
		closer, err := serve.Watch(ctx, ws.RuleFiles, s.Debounce,
			func(ctx context.Context) error {
				// Drop the parses of superseded file contents.
				lang.ClearCache()

				macros, err := ws.LoadMacros(ctx)
				if err != nil {
					return err
				}

				reg.Replace(macros...)

				return nil
			}, ws.Logger)
		if err != nil {
			return ErrWatch.Wrap(err)
		}
		defer closer.Close()
	}

	if !ws.Logger.IsEnabled(ctx, log.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           serve.New(reg, ws.Logger, ws.Options...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() { errc <- srv.ListenAndServe() }()

	ws.Logger.InfoContext(ctx, "serving",
		slog.String("addr", s.Addr),
		slog.Int("macros", reg.Len()),
	)

	select {
	case err := <-errc:
		return ErrServe.Wrap(err)

	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer done()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return ErrServe.Wrap(err)
	}

	return nil
}
