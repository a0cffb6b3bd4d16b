package lang

import "log/slog"

// Declaration keywords.
const (
	eagerRulesKeyword = "eager_macro_rules"
	rulesKeyword      = "macro_rules"
)

// ParseDeclarations extracts macro declarations from tokens.
//
// A dispatch-enabled declaration is written inside an `eager_macro_rules!`
// block, which may name its sentinel with a leading `$ident`:
//
//	eager_macro_rules!{ $eager_1
//	    /// doc comment
//	    #[attribute]
//	    macro_rules! name { {pattern} => {template}; ... }
//	}
//
// A bare `macro_rules! name { ... }` declares a macro with no tagged form.
// Any delimiter may enclose the rule groups, and rules are separated by `;`.
//
// The returned sentinel is the one named by the first `eager_macro_rules!`
// block, or the empty string. Tokens outside any declaration are returned as
// the program.
func ParseDeclarations(tokens []Token) (decls []Declaration, sentinel string, program []Token, err error) {
	var meta []Token

	flush := func() {
		program = append(program, meta...)
		meta = nil
	}

	for i := 0; i < len(tokens); {
		if n := attrWidth(tokens[i:]); n > 0 {
			meta = append(meta, tokens[i:i+n]...)
			i += n

			continue
		}

		name, args, ok := invocation(tokens[i:])

		switch {
		case ok && name == eagerRulesKeyword:
			flush()

			block, s, err := parseEagerBlock(args.Tokens)
			if err != nil {
				return nil, "", nil, err
			}

			if sentinel == "" {
				sentinel = s
			}

			decls = append(decls, block...)
			i += 3

		case ok && name == rulesKeyword:
			return nil, "", nil, ErrDeclaration.With(
				slog.String("reason", "missing macro name"),
				slog.String("near", String(tokens[i:i+3])),
			)

		case tokens[i].Is(KindIdent, rulesKeyword):
			d, n, err := parseMacroRules(tokens[i:], meta)
			if err != nil {
				return nil, "", nil, err
			}

			meta = nil
			decls = append(decls, d)
			i += n

			// Optional trailing `;` after a non-curly declaration body.
			if i < len(tokens) && tokens[i].IsPunct(";") {
				i++
			}

		default:
			flush()

			program = append(program, tokens[i])
			i++
		}
	}

	flush()

	return decls, sentinel, program, nil
}

// parseEagerBlock parses the contents of an `eager_macro_rules!` block.
func parseEagerBlock(body []Token) ([]Declaration, string, error) {
	var (
		decls    []Declaration
		meta     []Token
		sentinel string
	)

	if len(body) > 1 && body[0].IsPunct(metaMarker) && body[1].Kind == KindIdent {
		sentinel = body[1].Text
		body = body[2:]
	}

	for i := 0; i < len(body); {
		if n := attrWidth(body[i:]); n > 0 {
			meta = append(meta, body[i:i+n]...)
			i += n

			continue
		}

		if body[i].IsPunct(";") {
			i++

			continue
		}

		if !body[i].Is(KindIdent, rulesKeyword) {
			return nil, "", ErrDeclaration.With(
				slog.String("reason", "expected "+rulesKeyword+"!"),
				slog.String("near", String(body[i:])),
			)
		}

		d, n, err := parseMacroRules(body[i:], meta)
		if err != nil {
			return nil, "", err
		}

		d.Eager = true
		d.Sentinel = sentinel
		decls = append(decls, d)
		meta = nil
		i += n
	}

	if len(meta) > 0 {
		return nil, "", ErrDeclaration.With(
			slog.String("reason", "attribute without declaration"),
			slog.String("near", String(meta)),
		)
	}

	return decls, sentinel, nil
}

// parseMacroRules parses `macro_rules! name {rules}` at the front of tokens
// and returns the number of tokens consumed.
func parseMacroRules(tokens []Token, meta []Token) (Declaration, int, error) {
	if len(tokens) < 4 ||
		!tokens[1].IsPunct(callMarker) ||
		tokens[2].Kind != KindIdent ||
		!tokens[3].IsGroup() {
		return Declaration{}, 0, ErrDeclaration.With(
			slog.String("reason", "expected "+rulesKeyword+"! name { ... }"),
			slog.String("near", String(tokens[:min(len(tokens), 4)])),
		)
	}

	d := Declaration{Name: tokens[2].Text, Meta: meta}

	rules, err := parseRules(tokens[3].Tokens)
	if err != nil {
		return Declaration{}, 0, WrapError(err).With(slog.String("name", d.Name))
	}

	d.Rules = rules

	return d, 4, nil
}

// parseRules parses `{pattern} => {template}` arms separated by `;`.
func parseRules(body []Token) ([]Rule, error) {
	var rules []Rule

	for i := 0; i < len(body); {
		if body[i].IsPunct(";") {
			i++

			continue
		}

		rest := body[i:]
		if len(rest) < 4 ||
			!rest[0].IsGroup() ||
			!rest[1].IsPunct("=") ||
			!rest[2].IsPunct(">") ||
			!rest[3].IsGroup() {
			return nil, ErrDeclaration.With(
				slog.String("reason", "expected {pattern} => {template}"),
				slog.String("near", String(rest)),
			)
		}

		rules = append(rules, Rule{
			Pattern:  rest[0].Tokens,
			Template: rest[3].Tokens,
		})
		i += 4

		if i < len(body) && !body[i].IsPunct(";") {
			return nil, ErrDeclaration.With(
				slog.String("reason", "expected ; between rules"),
				slog.String("near", String(body[i:])),
			)
		}
	}

	if len(rules) == 0 {
		return nil, ErrDeclaration.With(slog.String("reason", "no rules"))
	}

	return rules, nil
}

// attrWidth returns 2 if tokens starts with an attribute `#[...]`.
func attrWidth(tokens []Token) int {
	if len(tokens) > 1 && tokens[0].IsPunct("#") &&
		tokens[1].IsGroup() && tokens[1].Delim == DelimSquare {
		return 2
	}

	return 0
}
