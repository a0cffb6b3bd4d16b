package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/eager/log"
)

func Example() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"), log.WithPretty(false))

	logger.Info("rules loaded", slog.Int("macros", 12))
	logger.Debug("not shown")

	// Output:
	// level=INFO msg="rules loaded" macros=12
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithTimeLayout("none"),
		log.WithPretty(false),
		log.WithLevel(log.LevelTrace),
	).With(slog.String("macro", "add"))

	logger.TraceContext(context.Background(), "dispatch", slog.Int("depth", 2))

	// Output:
	// level=TRACE msg=dispatch macro=add depth=2
}
