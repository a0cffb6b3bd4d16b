package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
)

const defaultEditor = "vi"

// editRulesCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
// It writes every registered macro as a YAML rules document, opens the
// user's editor, and replaces the registry with the edited declarations. On
// a parse error the user is prompted to re-edit; declining exits the program.
type editRulesCommand struct {
	session session
	ctxFunc func() context.Context
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	// macros is the number of macros declared by the edit, or -1 when the
	// edit was cancelled.
	macros int
}

func (c *editRulesCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editRulesCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editRulesCommand) SetStderr(w io.Writer) { c.stderr = w }

// document returns the YAML form of the registered macros.
func (s session) document(ctx context.Context) ([]byte, error) {
	names := s.registry.Names()
	macros := make([]*lang.Macro, 0, len(names))

	for _, name := range names {
		if m, ok := s.registry.Macro(name); ok {
			macros = append(macros, m)
		}
	}

	sentinel := lang.DefaultSentinel
	if len(macros) > 0 {
		sentinel = macros[0].Sentinel()
	}

	return lang.Document(sentinel, macros).Marshal(ctx, 2)
}

// replace parses a YAML rules document and swaps the registry contents for
// its macros.
func (s session) replace(ctx context.Context, data []byte) (int, error) {
	set, err := lang.ParseRulesYAML(ctx, bytes.NewReader(data), s.opts...)
	if err != nil {
		return 0, err
	}

	macros, err := set.Macros(s.opts...)
	if err != nil {
		return 0, err
	}

	s.registry.Replace(macros...)

	return len(macros), nil
}

// Run executes the edit-parse-retry loop. If the user declines to re-edit, it
// returns [ErrEditDeclined].
func (c *editRulesCommand) Run() error {
	ctx := c.ctxFunc()
	c.macros = -1

	content, err := c.session.document(ctx)
	if err != nil {
		return fmt.Errorf("format rules: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "eager-rules-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		n, parseErr := c.session.replace(ctx, data)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.macros = n

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = data
	}
}

// runEditor opens path in the user's editor and returns the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
