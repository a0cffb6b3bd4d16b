package lang

import (
	"log/slog"
	"maps"
	"slices"
)

// Transcribe substitutes the captures in b into template.
//
// `$name` is replaced by the tokens bound to name, and `$( ... ) sep? op`
// is repeated once per capture of the repeated variables it uses. A `$`
// followed by anything unbound is copied verbatim.
//
// Captures are spliced as bare token runs: an `expr` capture of `1 + 2` in
// `$x * 2` yields `1 + 2 * 2`. Templates that need the capture to bind as a
// unit group it themselves, as in `($x) * 2`.
func Transcribe(template []Token, b Bindings) ([]Token, error) {
	out := make([]Token, 0, len(template))

	for i := 0; i < len(template); i++ {
		t := template[i]

		if t.IsGroup() {
			sub, err := Transcribe(t.Tokens, b)
			if err != nil {
				return nil, err
			}

			g := Group(t.Delim, sub...)
			g.Joint = t.Joint
			out = append(out, g)

			continue
		}

		if !t.IsPunct(metaMarker) || i+1 == len(template) {
			out = append(out, t)

			continue
		}

		next := template[i+1]

		switch {
		case next.Kind == KindIdent:
			c, ok := b[next.Text]
			if !ok {
				out = append(out, t)

				continue
			}

			if c.Repeated {
				return nil, ErrTranscribe.With(
					slog.String("reason", "variable still repeating at this depth"),
					slog.String("name", next.Text),
				)
			}

			if n := len(c.Tokens); n > 0 {
				start := len(out)
				out = append(out, c.Tokens...)
				out[start+n-1].Joint = next.Joint
			}

			i++

		case next.IsGroup() && next.Delim == DelimRound:
			sep, _, n, ok := repetitionOp(template[i+2:])
			if !ok {
				out = append(out, t)

				continue
			}

			rep, err := transcribeRepeat(next.Tokens, sep, b)
			if err != nil {
				return nil, err
			}

			out = append(out, rep...)
			i += 1 + n

		default:
			out = append(out, t)
		}
	}

	return out, nil
}

func transcribeRepeat(template []Token, sep *Token, b Bindings) ([]Token, error) {
	var (
		names []string
		count = -1
	)

	for _, name := range templateNames(template) {
		c, ok := b[name]
		if !ok || !c.Repeated || slices.Contains(names, name) {
			continue
		}

		if count >= 0 && len(c.Seq) != count {
			return nil, ErrTranscribe.With(
				slog.String("reason", "inconsistent repetition counts"),
				slog.String("name", name),
				slog.Int("expected", count),
				slog.Int("got", len(c.Seq)),
			)
		}

		count = len(c.Seq)
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, ErrTranscribe.With(
			slog.String("reason", "repetition uses no repeated variable"),
			slog.String("template", String(template)),
		)
	}

	var out []Token

	for i := range count {
		if i > 0 && sep != nil {
			out = append(out, *sep)
		}

		iter := maps.Clone(b)

		for _, name := range names {
			iter[name] = b[name].Seq[i]
		}

		sub, err := Transcribe(template, iter)
		if err != nil {
			return nil, err
		}

		out = append(out, sub...)
	}

	return out, nil
}

// templateNames returns every name following `$` in template, at any depth.
func templateNames(template []Token) []string {
	var names []string

	for i, t := range template {
		switch {
		case t.IsGroup():
			names = append(names, templateNames(t.Tokens)...)
		case t.IsPunct(metaMarker) && i+1 < len(template) && template[i+1].Kind == KindIdent:
			names = append(names, template[i+1].Text)
		}
	}

	return names
}
