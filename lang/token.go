package lang

//go:generate go tool stringer --linecomment --type Kind,Delimiter,Class,Mode --output token_string.go

import "slices"

// Kind identifies the structural shape of a [Token].
type Kind uint8

const (
	KindIdent   Kind = iota // ident
	KindLiteral             // literal
	KindPunct               // punct
	KindGroup               // group
)

// Delimiter identifies the bracket pair enclosing a group.
type Delimiter uint8

const (
	DelimCurly  Delimiter = iota // {}
	DelimRound                   // ()
	DelimSquare                  // []
)

// Open returns the opening bracket of d.
func (d Delimiter) Open() byte { return "{(["[d] }

// Close returns the closing bracket of d.
func (d Delimiter) Close() byte { return "})]"[d] }

// delimiterOf returns the delimiter opened or closed by c.
func delimiterOf(c rune) (d Delimiter, open, ok bool) {
	switch c {
	case '{':
		return DelimCurly, true, true
	case '}':
		return DelimCurly, false, true
	case '(':
		return DelimRound, true, true
	case ')':
		return DelimRound, false, true
	case '[':
		return DelimSquare, true, true
	case ']':
		return DelimSquare, false, true
	}

	return 0, false, false
}

// Token is the unit of work of the engine: an atom (identifier, literal or
// punctuation mark) or a delimited group of tokens.
//
// Joint reports that no whitespace separated the token from its successor in
// the source it was scanned from. It only affects formatting.
type Token struct {
	Text   string
	Tokens []Token
	Kind   Kind
	Delim  Delimiter
	Joint  bool
}

// Ident returns an identifier token.
func Ident(name string) Token { return Token{Kind: KindIdent, Text: name} }

// Literal returns a literal token. The text is kept verbatim, including any
// quotes.
func Literal(text string) Token { return Token{Kind: KindLiteral, Text: text} }

// Punct returns a punctuation token.
func Punct(text string) Token { return Token{Kind: KindPunct, Text: text} }

// Group returns a group token with the given delimiter and contents.
func Group(d Delimiter, tokens ...Token) Token {
	return Token{Kind: KindGroup, Delim: d, Tokens: tokens}
}

// IsGroup reports whether t is a delimited group.
func (t Token) IsGroup() bool { return t.Kind == KindGroup }

// Is reports whether t is an atom of kind k with the given text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && t.Text == text
}

// IsPunct reports whether t is the punctuation mark p.
func (t Token) IsPunct(p string) bool { return t.Is(KindPunct, p) }

// String formats t as source text.
func (t Token) String() string { return String([]Token{t}) }

// Equal reports whether a and b have the same structure, ignoring spacing.
func Equal(a, b []Token) bool {
	return slices.EqualFunc(a, b, func(x, y Token) bool { return x.Equal(y) })
}

// Equal reports whether t and u have the same structure, ignoring spacing.
func (t Token) Equal(u Token) bool {
	if t.Kind != u.Kind {
		return false
	}

	if t.Kind == KindGroup {
		return t.Delim == u.Delim && Equal(t.Tokens, u.Tokens)
	}

	return t.Text == u.Text
}

// alone returns a copy of t that is not joined to its successor.
func (t Token) alone() Token {
	t.Joint = false

	return t
}

// concat returns a new slice holding the elements of all given slices.
// The result never aliases any argument.
func concat(parts ...[]Token) []Token {
	n := 0
	for _, p := range parts {
		n += len(p)
	}

	out := make([]Token, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}
