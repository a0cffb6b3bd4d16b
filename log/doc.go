// Package log is a small leveled logger built on [log/slog].
//
// A [Logger] is configured once with functional options and is safe for
// concurrent use. Its zero value discards everything.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("rules loaded", slog.Int("macros", 12))
//
// In addition to the slog levels there is [LevelTrace], used for
// per-step diagnostics that are too noisy for debug output. Check
// [Logger.IsEnabled] before building attributes for such messages.
//
// Pretty output ([WithPretty], on by default) colors keys and values with
// lipgloss when the output writer is a color terminal, and writes plain
// text otherwise.
//
// The package-level functions log with a shared default logger, which
// [Config] and [SetDefault] replace.
package log
