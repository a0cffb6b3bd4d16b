package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/eager/lang"
)

// Fmt reads sources and prints their tokens without expanding them.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as source text (default)."`
	JSON   JSON   `cmd:""                    help:"Format as a JSON token tree."`
	YAML   YAML   `cmd:""                    help:"Format as a YAML token tree."`
}

// SourceArgs names the sources of a fmt subcommand.
type SourceArgs struct {
	Source []string `arg:"" default:"-" help:"Source input files or '-' for stdin." name:"source"`
}

func (s SourceArgs) format(ctx context.Context, format string, indent int) error {
	ws := workspaceFrom(ctx)

	src, err := OpenSources(s.Source, ws.Stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	tokens, err := lang.ScanReader(ctx, src.Reader(), ws.options()...)
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("format", format),
			slog.Any("source", src.Names()),
		)
	}

	return writeTokens(ctx, ws.Stdout, tokens, format, indent)
}

// Native formats input as source text.
type Native struct {
	SourceArgs
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return f.format(ctx, FormatNative, 0)
}

// JSON formats input as a JSON token tree.
type JSON struct {
	Indent int `default:"2" help:"Indent width; 0 for compact output." short:"i"`

	SourceArgs
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return j.format(ctx, FormatJSON, j.Indent)
}

// YAML formats input as a YAML token tree.
type YAML struct {
	Indent int `default:"2" help:"Indent width; 0 for flow style." short:"i"`

	SourceArgs
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return y.format(ctx, FormatYAML, y.Indent)
}
