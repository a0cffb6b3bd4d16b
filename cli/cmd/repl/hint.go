package repl

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/eager/lang"
)

var (
	hintNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	hintRuleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintMatchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)
)

// invocation is the innermost unclosed macro invocation around the cursor.
type invocation struct {
	name   string // invoked macro, without the `!`
	args   string // input between the opening delimiter and the cursor
	inCall bool
}

func isOpen(r rune) bool  { return r == '(' || r == '[' || r == '{' }
func isClose(r rune) bool { return r == ')' || r == ']' || r == '}' }

// detectInvocation finds the innermost `name!(` whose group is still open at
// cursor.
func detectInvocation(input string, cursor int) invocation {
	cursor = min(cursor, len(input))

	depth := 0

	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch {
		case isClose(r):
			depth++

			continue

		case !isOpen(r):
			continue

		case depth > 0:
			depth--

			continue
		}

		head := strings.TrimRightFunc(input[:i], unicode.IsSpace)

		name, ok := strings.CutSuffix(head, "!")
		if !ok {
			continue
		}

		start := strings.LastIndexFunc(name, func(r rune) bool {
			return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})

		if name = name[start+1:]; name == "" {
			continue
		}

		return invocation{name: name, args: input[i+size : cursor], inCall: true}
	}

	return invocation{}
}

// ruleHint returns the patterns of the rules of the macro named by inv, and
// the index of the first rule that matches the arguments typed so far, or -1.
func ruleHint(ctx context.Context, reg *lang.Registry, inv invocation) (patterns []string, matched int) {
	matched = -1

	m, ok := reg.Macro(inv.name)
	if !ok {
		return nil, matched
	}

	args, err := lang.Scan(ctx, inv.args)

	for i, r := range m.Rules() {
		patterns = append(patterns, lang.Group(lang.DelimRound, r.Pattern...).String())

		if err != nil || matched >= 0 {
			continue
		}

		if p, perr := lang.CompilePattern(r.Pattern); perr == nil {
			if _, ok := p.Match(args); ok {
				matched = i
			}
		}
	}

	return patterns, matched
}

// renderRuleHint renders the rules of the invoked macro, highlighting the
// rule the current arguments match.
func renderRuleHint(ctx context.Context, reg *lang.Registry, inv invocation) string {
	patterns, matched := ruleHint(ctx, reg, inv)
	if len(patterns) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(hintNameStyle.Render(inv.name + "!"))
	b.WriteString(" ")

	for i, p := range patterns {
		if i > 0 {
			b.WriteString(hintRuleStyle.Render(" | "))
		}

		if i == matched {
			b.WriteString(hintMatchStyle.Render(p))
		} else {
			b.WriteString(hintRuleStyle.Render(p))
		}
	}

	return b.String()
}
