package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// metaMarker introduces pattern variables and repetitions.
const metaMarker = "$"

// fragment specifiers accepted after `$name:`. The value reports whether the
// fragment spans a run of tokens rather than a single one.
var fragments = map[string]bool{
	"tt":      false,
	"ident":   false,
	"literal": false,
	"block":   false,
	"expr":    true,
	"ty":      true,
	"path":    true,
	"pat":     true,
	"stmt":    true,
	"item":    true,
	"meta":    true,
}

type elemKind uint8

const (
	elemToken elemKind = iota
	elemGroup
	elemVar
	elemRepeat
)

// element is one compiled pattern item.
type element struct {
	sep   *Token
	name  string
	frag  string
	sub   []element
	names []string // variables bound inside a repetition
	tok   Token
	kind  elemKind
	delim Delimiter
	op    byte
}

// Pattern is a compiled rule pattern.
type Pattern struct {
	elems []element
	names []string
}

// CompilePattern compiles the contents of a rule's pattern group.
//
// A pattern is made of literal tokens, nested groups, variables `$name:frag`
// (`$name` alone is `$name:tt`) and repetitions `$( ... ) sep? op` where op
// is one of `*`, `+` or `?`.
func CompilePattern(tokens []Token) (*Pattern, error) {
	elems, err := compileElems(tokens)
	if err != nil {
		return nil, err
	}

	names := boundNames(elems)

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return nil, ErrPattern.With(
				slog.String("reason", "duplicate variable"),
				slog.String("name", n),
			)
		}

		seen[n] = struct{}{}
	}

	return &Pattern{elems: elems, names: names}, nil
}

// Names returns the variables bound by p in order of appearance.
func (p *Pattern) Names() []string { return slices.Clone(p.names) }

func compileElems(tokens []Token) ([]element, error) {
	var elems []element

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		if t.IsGroup() {
			sub, err := compileElems(t.Tokens)
			if err != nil {
				return nil, err
			}

			elems = append(elems, element{kind: elemGroup, delim: t.Delim, sub: sub})

			continue
		}

		if !t.IsPunct(metaMarker) || i+1 == len(tokens) {
			elems = append(elems, element{kind: elemToken, tok: t})

			continue
		}

		switch next := tokens[i+1]; {
		case next.Kind == KindIdent:
			e := element{kind: elemVar, name: next.Text, frag: "tt"}
			i++

			if i+2 < len(tokens) && tokens[i+1].IsPunct(":") && tokens[i+2].Kind == KindIdent {
				e.frag = tokens[i+2].Text
				i += 2

				if _, ok := fragments[e.frag]; !ok {
					return nil, ErrPattern.With(
						slog.String("reason", "unknown fragment specifier"),
						slog.String("name", e.name),
						slog.String("fragment", e.frag),
					)
				}
			}

			elems = append(elems, e)

		case next.IsGroup() && next.Delim == DelimRound:
			sub, err := compileElems(next.Tokens)
			if err != nil {
				return nil, err
			}

			sep, op, n, ok := repetitionOp(tokens[i+2:])
			if !ok {
				return nil, ErrPattern.With(
					slog.String("reason", "expected repetition operator"),
					slog.String("near", String(tokens[i:])),
				)
			}

			if op != '?' && nullable(sub) {
				return nil, ErrPattern.With(
					slog.String("reason", "repetition matches empty token tree"),
					slog.String("near", String(tokens[i:i+2+n])),
				)
			}

			elems = append(elems, element{
				kind:  elemRepeat,
				sub:   sub,
				sep:   sep,
				op:    op,
				names: boundNames(sub),
			})
			i += 1 + n

		default:
			elems = append(elems, element{kind: elemToken, tok: t})
		}
	}

	return elems, nil
}

// repetitionOp reads the optional separator and the operator following a
// repetition group, and returns the number of tokens consumed.
func repetitionOp(rest []Token) (sep *Token, op byte, n int, ok bool) {
	isOp := func(t Token) bool {
		return t.IsPunct("*") || t.IsPunct("+") || t.IsPunct("?")
	}

	switch {
	case len(rest) >= 1 && isOp(rest[0]):
		return nil, rest[0].Text[0], 1, true

	case len(rest) >= 2 && !rest[0].IsGroup() && isOp(rest[1]):
		s := rest[0].alone()

		return &s, rest[1].Text[0], 2, true
	}

	return nil, 0, 0, false
}

// nullable reports whether elems can match an empty input.
func nullable(elems []element) bool {
	for _, e := range elems {
		switch e.kind {
		case elemToken, elemGroup, elemVar:
			return false
		case elemRepeat:
			if e.op == '+' && !nullable(e.sub) {
				return false
			}
		}
	}

	return true
}

func boundNames(elems []element) []string {
	var names []string

	for _, e := range elems {
		switch e.kind {
		case elemVar:
			names = append(names, e.name)
		case elemGroup, elemRepeat:
			names = append(names, boundNames(e.sub)...)
		}
	}

	return names
}

// Capture is the value bound to a pattern variable: the matched tokens, or
// one capture per iteration of an enclosing repetition.
type Capture struct {
	Tokens   []Token
	Seq      []Capture
	Repeated bool
}

// Bindings maps pattern variables to their captures.
type Bindings map[string]Capture

func (b Bindings) bind(name string, c Capture) Bindings {
	out := maps.Clone(b)
	if out == nil {
		out = Bindings{}
	}

	out[name] = c

	return out
}

// repeat binds every name to the sequence of its per-iteration captures.
func (b Bindings) repeat(names []string, iters []Bindings) Bindings {
	out := maps.Clone(b)
	if out == nil {
		out = Bindings{}
	}

	for _, n := range names {
		seq := make([]Capture, len(iters))
		for i, it := range iters {
			seq[i] = it[n]
		}

		out[n] = Capture{Seq: seq, Repeated: true}
	}

	return out
}

// cont receives the unmatched remainder of the input and the bindings so far.
type cont func(rest []Token, b Bindings) bool

// DefaultMaxMatchSteps is the default number of backtracking steps a single
// pattern match may take before it fails with [ErrRecursionLimit].
var DefaultMaxMatchSteps = 1 << 16

// ctxCheckInterval is the number of match steps between context checks.
const ctxCheckInterval = 1 << 8

// matcher bounds the work of one match.
type matcher struct {
	ctx   context.Context
	err   error
	steps int
	limit int
}

// step counts one unit of work, and reports false once the match must stop.
func (m *matcher) step() bool {
	if m.err != nil {
		return false
	}

	m.steps++

	if m.limit > 0 && m.steps > m.limit {
		m.err = ErrRecursionLimit.With(
			slog.String("reason", "pattern match step limit"),
			slog.Int("limit", m.limit),
		)

		return false
	}

	if m.steps%ctxCheckInterval == 0 {
		if err := m.ctx.Err(); err != nil {
			m.err = err

			return false
		}
	}

	return true
}

// Match matches tokens against p with the default step budget. The whole
// input must be consumed. A match that exceeds the budget does not match.
func (p *Pattern) Match(tokens []Token) (Bindings, bool) {
	b, ok, _ := p.MatchContext(context.Background(), tokens, DefaultMaxMatchSteps)

	return b, ok
}

// MatchContext matches tokens against p, taking at most limit backtracking
// steps (no bound if limit <= 0). Exceeding the limit returns
// [ErrRecursionLimit]; cancellation of ctx returns its error.
func (p *Pattern) MatchContext(ctx context.Context, tokens []Token, limit int) (Bindings, bool, error) {
	var out Bindings

	m := &matcher{ctx: ctx, limit: limit}

	ok := m.seq(p.elems, tokens, Bindings{}, func(rest []Token, b Bindings) bool {
		if len(rest) != 0 {
			return false
		}

		out = b

		return true
	})

	if m.err != nil {
		return nil, false, m.err
	}

	return out, ok, nil
}

func (m *matcher) seq(elems []element, tokens []Token, b Bindings, k cont) bool {
	if !m.step() {
		return false
	}

	if len(elems) == 0 {
		return k(tokens, b)
	}

	e, next := &elems[0], elems[1:]

	switch e.kind {
	case elemToken:
		if len(tokens) == 0 || !tokens[0].Equal(e.tok) {
			return false
		}

		return m.seq(next, tokens[1:], b, k)

	case elemGroup:
		if len(tokens) == 0 || !tokens[0].IsGroup() || tokens[0].Delim != e.delim {
			return false
		}

		return m.seq(e.sub, tokens[0].Tokens, b, func(rest []Token, b Bindings) bool {
			return len(rest) == 0 && m.seq(next, tokens[1:], b, k)
		})

	case elemVar:
		for _, n := range fragmentLengths(e.frag, tokens) {
			c := Capture{Tokens: tokens[:n:n]}
			if m.seq(next, tokens[n:], b.bind(e.name, c), k) {
				return true
			}

			if m.err != nil {
				return false
			}
		}

		return false

	case elemRepeat:
		return m.repeat(e, next, tokens, b, nil, k)
	}

	return false
}

// repeat matches as many iterations of e as possible, backing off one
// iteration at a time until the rest of the pattern matches.
func (m *matcher) repeat(e *element, next []element, tokens []Token, b Bindings, iters []Bindings, k cont) bool {
	if e.op != '?' || len(iters) == 0 {
		rest := tokens
		ok := true

		if len(iters) > 0 && e.sep != nil {
			if len(rest) == 0 || !rest[0].Equal(*e.sep) {
				ok = false
			} else {
				rest = rest[1:]
			}
		}

		if ok && m.seq(e.sub, rest, Bindings{}, func(after []Token, ib Bindings) bool {
			// An iteration must consume input.
			if len(after) == len(tokens) {
				return false
			}

			return m.repeat(e, next, after, b, append(iters[:len(iters):len(iters)], ib), k)
		}) {
			return true
		}
	}

	if m.err != nil || (e.op == '+' && len(iters) == 0) {
		return false
	}

	return m.seq(next, tokens, b.repeat(e.names, iters), k)
}

// fragmentLengths returns the candidate token counts a fragment may span at
// the front of tokens, longest first.
func fragmentLengths(frag string, tokens []Token) []int {
	if len(tokens) == 0 {
		return nil
	}

	first := tokens[0]

	switch frag {
	case "tt":
		return []int{1}

	case "ident":
		if first.Kind == KindIdent {
			return []int{1}
		}

	case "literal":
		if first.Kind == KindLiteral {
			return []int{1}
		}

		if first.IsPunct("-") && len(tokens) > 1 && tokens[1].Kind == KindLiteral {
			return []int{2}
		}

	case "block":
		if first.IsGroup() && first.Delim == DelimCurly {
			return []int{1}
		}

	default:
		end := len(tokens)

		for i, t := range tokens {
			if t.IsPunct(",") || t.IsPunct(";") ||
				(t.IsPunct("=") && t.Joint && i+1 < len(tokens) && tokens[i+1].IsPunct(">")) {
				end = i

				break
			}
		}

		lengths := make([]int, 0, end)
		for n := end; n > 0; n-- {
			lengths = append(lengths, n)
		}

		return lengths
	}

	return nil
}
