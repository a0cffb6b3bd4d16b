package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/eager/lang"
)

// Eval expands the sources and evaluates the expansion as an expression.
type Eval struct {
	Env map[string]string `help:"Bind a name visible to the expression (key=value)." placeholder:"KEY=VALUE" short:"e"`

	Source []string `arg:"" default:"-" help:"Source input files or '-' for stdin." name:"source"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ws := workspaceFrom(ctx)

	tokens, err := ws.Expand(ctx, e.Source)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	result, err := lang.Evaluate(ctx, tokens, e.env())
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	if _, err := fmt.Fprintln(ws.Stdout, lang.FormatResult(result)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

func (e *Eval) env() map[string]any {
	env := make(map[string]any, len(e.Env))

	for k, v := range e.Env {
		env[k] = lang.ParseValue(v)
	}

	return env
}
