// Package cmd implements the subcommands of the eager command line.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
)

// CacheIdentifier is the kong variable holding the runtime cache directory.
const CacheIdentifier = "cache"

// ConfigIdentifier is the kong variable holding the configuration file path.
const ConfigIdentifier = "config"

type contextKey struct{}

// WithContext returns ctx carrying the parsed kong context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// Workspace is the environment shared by every command: the rule files to
// load, the engine options, the logger and the standard streams.
type Workspace struct {
	RuleFiles []string
	Options   []lang.Option
	Logger    log.Logger
	Stdin     io.Reader
	Stdout    io.Writer
}

type workspaceKey struct{}

// WithWorkspace returns ctx carrying ws.
func WithWorkspace(ctx context.Context, ws Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey{}, ws)
}

// workspaceFrom returns the workspace stored in ctx, with the standard
// streams defaulted to the process streams.
func workspaceFrom(ctx context.Context) Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(Workspace)

	if ws.Stdin == nil {
		ws.Stdin = os.Stdin
	}

	if ws.Stdout == nil {
		ws.Stdout = os.Stdout
	}

	return ws
}

// options returns the engine options with the workspace logger attached.
func (w Workspace) options() []lang.Option {
	return append([]lang.Option{lang.WithLogger(w.Logger)}, w.Options...)
}

// LoadMacros declares the macros of every rule file in order. A macro
// declared again by a later file replaces the earlier one.
func (w Workspace) LoadMacros(ctx context.Context) ([]*lang.Macro, error) {
	var macros []*lang.Macro

	for _, name := range w.RuleFiles {
		m, err := w.loadFile(ctx, name)
		if err != nil {
			return nil, err
		}

		macros = append(macros, m...)
	}

	w.Logger.DebugContext(ctx, "rules loaded",
		slog.Int("files", len(w.RuleFiles)),
		slog.Int("macros", len(macros)),
	)

	return macros, nil
}

func (w Workspace) loadFile(ctx context.Context, name string) ([]*lang.Macro, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, ErrLoadRules.Wrap(err).With(slog.String("file", name))
	}
	defer f.Close()

	set, err := lang.LoadRulesFile(ctx, name, f, w.options()...)
	if err != nil {
		return nil, ErrLoadRules.Wrap(err).With(slog.String("file", name))
	}

	macros, err := set.Macros(w.options()...)
	if err != nil {
		return nil, ErrLoadRules.Wrap(err).With(slog.String("file", name))
	}

	return macros, nil
}

// Registry returns a registry holding the macros of every rule file.
func (w Workspace) Registry(ctx context.Context) (*lang.Registry, error) {
	macros, err := w.LoadMacros(ctx)
	if err != nil {
		return nil, err
	}

	return lang.NewRegistry(macros...), nil
}

// Program is a parsed source: the macros it declares and the tokens between
// the declarations.
type Program struct {
	Macros []*lang.Macro
	Tokens []lang.Token
}

// LoadProgram reads and parses the named sources.
func (w Workspace) LoadProgram(ctx context.Context, names []string) (*Program, error) {
	src, err := OpenSources(names, w.Stdin)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	set, err := lang.LoadRules(ctx, src.Reader(), w.options()...)
	if err != nil {
		return nil, lang.WrapError(err).With(slog.Any("source", src.Names()))
	}

	macros, err := set.Macros(w.options()...)
	if err != nil {
		return nil, lang.WrapError(err).With(slog.Any("source", src.Names()))
	}

	return &Program{Macros: macros, Tokens: set.Program}, nil
}

// Expand expands the program in the named sources with the macros of the rule
// files and those declared by the sources themselves.
func (w Workspace) Expand(ctx context.Context, names []string) ([]lang.Token, error) {
	reg, err := w.Registry(ctx)
	if err != nil {
		return nil, err
	}

	prog, err := w.LoadProgram(ctx, names)
	if err != nil {
		return nil, err
	}

	reg.Register(prog.Macros...)

	return lang.NewHost(reg, w.options()...).Expand(ctx, prog.Tokens)
}
