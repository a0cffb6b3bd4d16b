package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/eager/lang"
)

// Output formats accepted by --format.
const (
	FormatNative = "native"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// Expand expands every macro invocation in the sources and prints the result.
type Expand struct {
	Format string `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent int    `default:"2"                             help:"Indent width for JSON and YAML output." short:"i"`

	Source []string `arg:"" default:"-" help:"Source input files or '-' for stdin." name:"source"`
}

// Run executes the expand command.
func (e *Expand) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ws := workspaceFrom(ctx)

	tokens, err := ws.Expand(ctx, e.Source)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "expand"))
	}

	return writeTokens(ctx, ws.Stdout, tokens, e.Format, e.Indent)
}

// writeTokens prints tokens in the named format.
func writeTokens(ctx context.Context, w io.Writer, tokens []lang.Token, format string, indent int) error {
	var err error

	switch format {
	case FormatNative, "":
		if err = lang.Format(w, tokens); err == nil {
			_, err = io.WriteString(w, "\n")
		}

	case FormatJSON:
		err = lang.FormatJSON(w, tokens, indent)

	case FormatYAML:
		err = lang.FormatYAML(ctx, w, tokens, indent)

	default:
		return ErrInvalidFormat.With(slog.String("format", format))
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", format))
	}

	return nil
}
