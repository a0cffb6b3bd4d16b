package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/eager/lang"
)

// Rules lists the macros declared by the rule files and sources.
type Rules struct {
	Format string   `default:"native" enum:"native,yaml" help:"Output format (${enum})." short:"o"`
	Indent int      `default:"2"                         help:"Indent width for YAML output." short:"i"`
	Source []string `                                    help:"Also declare the macros of these sources." short:"s"`

	Name []string `arg:"" help:"Macros to show; all when omitted." name:"name" optional:""`
}

// Run executes the rules command.
func (r *Rules) Run(ctx context.Context) (err error) {
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

	macros, err := selectMacros(reg, r.Name)
	if err != nil {
		return err
	}

	switch r.Format {
	case FormatYAML:
		err = writeDocument(ctx, ws.Stdout, macros, r.Indent)
	default:
		err = writeMacros(ws.Stdout, macros, len(r.Name) > 0)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// selectMacros returns the named macros of reg, or all of them sorted by
// name when names is empty.
func selectMacros(reg *lang.Registry, names []string) ([]*lang.Macro, error) {
	if len(names) == 0 {
		names = reg.Names()
	}

	macros := make([]*lang.Macro, 0, len(names))

	for _, name := range names {
		m, ok := reg.Macro(name)
		if !ok {
			return nil, ErrUnknownMacro.With(slog.String("name", name))
		}

		macros = append(macros, m)
	}

	return macros, nil
}

// writeMacros prints one line per macro, or the full declaration of each
// macro when detail is set.
func writeMacros(w io.Writer, macros []*lang.Macro, detail bool) error {
	for i, m := range macros {
		if detail {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}

			if err := m.Format(w); err != nil {
				return err
			}

			continue
		}

		if _, err := fmt.Fprintln(w, summary(m)); err != nil {
			return err
		}
	}

	return nil
}

// summary is the one-line listing of m: its name, whether it is
// eager-enabled and the first line of its documentation.
func summary(m *lang.Macro) string {
	var b strings.Builder

	b.WriteString(m.Name())

	if m.Eager() {
		b.WriteString(" [eager]")
	}

	if doc := m.Doc(); len(doc) > 0 {
		b.WriteString("\t")
		b.WriteString(strings.TrimSpace(doc[0]))
	}

	return b.String()
}

func writeDocument(ctx context.Context, w io.Writer, macros []*lang.Macro, indent int) error {
	sentinel := lang.DefaultSentinel
	if len(macros) > 0 {
		sentinel = macros[0].Sentinel()
	}

	data, err := lang.Document(sentinel, macros).Marshal(ctx, indent)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
