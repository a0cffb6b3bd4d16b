package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/eager/log"
)

// Rule is a single `{pattern} => {template}` arm of a declaration. Pattern
// and Template hold the contents of the two groups.
type Rule struct {
	Pattern  []Token
	Template []Token
}

// Declaration is the source of a [Macro].
type Declaration struct {
	// Name is the identifier the macro is invoked by.
	Name string
	// Sentinel overrides the hygienic identifier given to [Declare].
	Sentinel string
	// Meta holds doc comments and attributes as `#[...]` tokens. It is kept
	// verbatim and never interpreted.
	Meta  []Token
	Rules []Rule
	// Eager reports whether the macro may be invoked by the engine.
	Eager bool
}

// Doc returns the text of the `#[doc = "..."]` attributes in d.Meta.
func (d Declaration) Doc() []string { return docLines(d.Meta) }

// Macro is a declared expander. Its rules are ordered tagged first, then
// plain: tagged rules answer calls made by the engine and plain rules answer
// direct calls.
type Macro struct {
	name     string
	sentinel string
	meta     []Token
	rules    []macroRule
	logger   log.Logger
	steps    int
	eager    bool
}

type macroRule struct {
	pattern *Pattern
	src     Rule
	tagged  bool
}

// Name returns the invocation name of m.
func (m *Macro) Name() string { return m.name }

// Eager reports whether m was declared dispatch-enabled.
func (m *Macro) Eager() bool { return m.eager }

// Sentinel returns the hygienic identifier reserved by m.
func (m *Macro) Sentinel() string { return m.sentinel }

// Meta returns the metadata tokens of m.
func (m *Macro) Meta() []Token { return m.meta }

// Doc returns the doc comment lines of m.
func (m *Macro) Doc() []string { return docLines(m.meta) }

// Rules returns the user rules of m in declaration order.
func (m *Macro) Rules() []Rule {
	var rules []Rule

	for _, r := range m.rules {
		if !r.tagged {
			rules = append(rules, r.src)
		}
	}

	return rules
}

// Expand implements [Expander].
func (m *Macro) Expand(ctx context.Context, call Call) (Expansion, error) {
	tagged := call.ViaDispatch()
	if tagged && !m.eager {
		return Expansion{}, ErrNotEagerEnabled.With(slog.String("name", m.name))
	}

	for i, r := range m.rules {
		if r.tagged != tagged {
			continue
		}

		b, ok, err := r.pattern.MatchContext(ctx, call.Args, m.steps)
		if err != nil {
			return Expansion{}, WrapError(err).With(
				slog.String("name", m.name),
				slog.Int("rule", i),
			)
		}

		if !ok {
			continue
		}

		out, err := Transcribe(r.src.Template, b)
		if err != nil {
			return Expansion{}, WrapError(err).With(
				slog.String("name", m.name),
				slog.Int("rule", i),
			)
		}

		m.logger.TraceContext(
			ctx,
			"expand",
			slog.String("name", m.name),
			slog.Bool("tagged", tagged),
			slog.Int("rule", i),
			slog.String("args", String(call.Args)),
			slog.String("replacement", String(out)),
		)

		return call.Return(out), nil
	}

	return Expansion{}, ErrNoMatchingRule.With(
		slog.String("name", m.name),
		slog.Bool("tagged", tagged),
		slog.String("args", String(call.Args)),
	)
}

// Format writes the dual-form declaration of m.
//
// Tagged rules are shown in the `@eager[...]` notation: the pattern is
// prefixed with the sentinel capture and the template is wrapped in an
// `eager!` region.
func (m *Macro) Format(w io.Writer) error {
	var b strings.Builder

	for _, attr := range splitAttrs(m.meta) {
		b.WriteString(String(attr))
		b.WriteByte('\n')
	}

	b.WriteString("macro_rules! ")
	b.WriteString(m.name)
	b.WriteString(" {\n")

	for _, r := range m.rules {
		pattern, template := r.src.Pattern, r.src.Template
		if r.tagged {
			pattern = concat(m.sentinelCapture(), pattern)
			template = Keyword(ModeExpand, template...)
		}

		b.WriteString("    ")
		b.WriteString(Group(DelimCurly, pattern...).String())
		b.WriteString(" => ")
		b.WriteString(Group(DelimCurly, template...).String())
		b.WriteString(";\n")
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())

	return err
}

// sentinelCapture returns `@eager[$($sentinel:tt)*]`.
func (m *Macro) sentinelCapture() []Token {
	joint := func(t Token) Token {
		t.Joint = true

		return t
	}

	return []Token{
		joint(Punct("@")),
		joint(Ident(ModeExpand.String())),
		Group(DelimSquare,
			joint(Punct(metaMarker)),
			joint(Group(DelimRound,
				joint(Punct(metaMarker)),
				joint(Ident(m.sentinel)),
				joint(Punct(":")),
				Ident("tt"),
			)),
			Punct("*"),
		),
	}
}

// splitAttrs splits meta into `#[...]` attributes. Tokens that are not part
// of an attribute are kept with the preceding one.
func splitAttrs(meta []Token) [][]Token {
	var attrs [][]Token

	for i, t := range meta {
		if t.IsPunct("#") || len(attrs) == 0 {
			attrs = append(attrs, nil)
		}

		attrs[len(attrs)-1] = append(attrs[len(attrs)-1], meta[i])
	}

	return attrs
}

// docLines extracts the strings of `#[doc = "..."]` attributes.
func docLines(meta []Token) []string {
	var lines []string

	for _, attr := range splitAttrs(meta) {
		if len(attr) != 2 || !attr[1].IsGroup() || attr[1].Delim != DelimSquare {
			continue
		}

		body := attr[1].Tokens
		if len(body) != 3 || !body[0].Is(KindIdent, "doc") ||
			!body[1].IsPunct("=") || body[2].Kind != KindLiteral {
			continue
		}

		if s, err := strconv.Unquote(body[2].Text); err == nil {
			lines = append(lines, s)
		}
	}

	return lines
}
