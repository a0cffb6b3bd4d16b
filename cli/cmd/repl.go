package cmd

import (
	"context"

	"github.com/ardnew/eager/cli/cmd/repl"
)

// Repl starts an interactive expansion session.
type Repl struct {
	Source []string `help:"Also declare the macros of these sources." short:"s"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ws := workspaceFrom(ctx)

	reg, err := ws.Registry(ctx)
	if err != nil {
		return err
	}

	if len(r.Source) > 0 {
		prog, err := ws.LoadProgram(ctx, r.Source)
		if err != nil {
			return err
		}

		reg.Register(prog.Macros...)
	}

	cacheDir := ""
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Config{
		Registry: reg,
		Options:  ws.Options,
		CacheDir: cacheDir,
		Logger:   ws.Logger,
	})
}
