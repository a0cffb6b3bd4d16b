package lang

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/eager/log"
)

// Scan splits src into tokens, nesting bracketed text into groups.
//
// Identifiers, numbers, string and character literals become single tokens;
// every other non-space rune is a punctuation token of its own. Line (`//`)
// and block (`/* */`) comments are skipped, while doc comments (`///`) are
// kept as `#[doc = "..."]` attributes.
func Scan(ctx context.Context, src string, opts ...Option) ([]Token, error) {
	o := makeOptions(opts...)

	s := &scanner{
		input:  []byte(src),
		src:    src,
		line:   1,
		col:    1,
		logger: o.logger,
	}

	tokens, err := s.scan()
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(
		ctx,
		"scan complete",
		slog.Int("source_bytes", len(src)),
		slog.Int("tokens", len(tokens)),
	)

	return tokens, nil
}

// ScanReader reads all of r and scans it with [Scan].
func ScanReader(ctx context.Context, r io.Reader, opts ...Option) ([]Token, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return Scan(ctx, string(data), opts...)
}

// MustScan is like [Scan] but panics on error. It is intended for tests and
// package-level rule tables.
func MustScan(src string) []Token {
	tokens, err := Scan(context.Background(), src)
	if err != nil {
		panic(err)
	}

	return tokens
}

type scanner struct {
	logger log.Logger
	src    string
	input  []byte
	pos    int
	line   int
	col    int
}

// level is an open group being scanned.
type level struct {
	tokens []Token
	open   Position
	delim  Delimiter
}

func (s *scanner) scan() ([]Token, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	stack := []level{{}}

	for {
		start := s.pos
		if err := s.skipWhitespaceAndComments(); err != nil {
			return nil, err
		}

		top := &stack[len(stack)-1]
		if n := len(top.tokens); n > 0 && s.pos == start && !s.eof() && !isCloser(s.peek()) {
			top.tokens[n-1].Joint = true
		}

		if s.eof() {
			break
		}

		pos := s.position()
		ch := s.peek()

		if d, open, ok := delimiterOf(ch); ok {
			s.advance()

			if open {
				stack = append(stack, level{open: pos, delim: d})

				continue
			}

			if len(stack) == 1 || top.delim != d {
				return nil, ErrParse.
					With(slog.String("reason", "unexpected closing delimiter"),
						slog.String("delimiter", string(ch))).
					At(pos, s.src)
			}

			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.tokens = append(parent.tokens, Group(d, top.tokens...))

			continue
		}

		tokens, err := s.next(ch)
		if err != nil {
			return nil, err
		}

		top.tokens = append(top.tokens, tokens...)
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1]

		return nil, ErrParse.
			With(slog.String("reason", "unclosed delimiter"),
				slog.String("delimiter", string(open.delim.Open()))).
			At(open.open, s.src)
	}

	return stack[0].tokens, nil
}

// next scans the atom starting at ch.
func (s *scanner) next(ch rune) ([]Token, error) {
	switch {
	case s.peekN(3) == "///":
		return s.docComment(), nil

	case ch == '"' || ch == '`':
		start := s.pos
		if err := s.skipString(ch); err != nil {
			return nil, err
		}

		return []Token{Literal(string(s.input[start:s.pos]))}, nil

	case ch == '\'':
		if lit, ok := s.charLiteral(); ok {
			return []Token{Literal(lit)}, nil
		}

	case ch >= '0' && ch <= '9':
		return []Token{Literal(s.number())}, nil

	case isIdentifierStart(ch):
		start := s.pos
		for !s.eof() && isIdentifierContinue(s.peek()) {
			s.advance()
		}

		return []Token{Ident(string(s.input[start:s.pos]))}, nil
	}

	s.advance()

	return []Token{Punct(string(ch))}, nil
}

// docComment converts a `///` line into `#[doc = "..."]`.
func (s *scanner) docComment() []Token {
	s.advance()
	s.advance()
	s.advance()

	start := s.pos
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}

	text := strings.TrimSpace(string(s.input[start:s.pos]))

	return docAttr(text)
}

// charLiteral scans 'c' or an escaped '\n'. A lone quote is not a literal.
func (s *scanner) charLiteral() (string, bool) {
	rest := s.input[s.pos+1:]

	// n is the offset of the closing quote in rest.
	n := 0

	switch {
	case len(rest) >= 3 && rest[0] == '\\':
		end := strings.IndexByte(string(rest[2:]), '\'')
		if end < 0 {
			return "", false
		}

		n = end + 2
	default:
		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError || len(rest) <= size || rest[size] != '\'' {
			return "", false
		}

		n = size
	}

	start := s.pos
	for range utf8.RuneCount(s.input[s.pos : s.pos+n+2]) {
		s.advance()
	}

	return string(s.input[start:s.pos]), true
}

// number scans digits with an optional fraction, exponent and suffix.
func (s *scanner) number() string {
	start := s.pos

	digits := func() {
		for !s.eof() && (isDigit(s.peek()) || s.peek() == '_') {
			s.advance()
		}
	}

	digits()

	if s.peek() == '.' && s.pos+1 < len(s.input) && isDigit(rune(s.input[s.pos+1])) {
		s.advance()
		digits()
	}

	if c := s.peek(); c == 'e' || c == 'E' {
		next := s.peekN(3)
		if len(next) > 1 && (isDigit(rune(next[1])) ||
			((next[1] == '+' || next[1] == '-') && len(next) > 2 && isDigit(rune(next[2])))) {
			s.advance()

			if c := s.peek(); c == '+' || c == '-' {
				s.advance()
			}

			digits()
		}
	}

	for !s.eof() && isIdentifierContinue(s.peek()) {
		s.advance()
	}

	return string(s.input[start:s.pos])
}

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(s.input[s.pos:])

	return r
}

func (s *scanner) peekN(n int) string {
	end := min(s.pos+n, len(s.input))

	return string(s.input[s.pos:end])
}

func (s *scanner) advance() {
	if s.eof() {
		return
	}

	r, size := utf8.DecodeRune(s.input[s.pos:])

	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

func (s *scanner) eof() bool { return s.pos >= len(s.input) }

func (s *scanner) position() Position {
	return Position{Offset: s.pos, Line: s.line, Column: s.col}
}

// validate rejects input that is not UTF-8, reporting the first bad byte.
func (s *scanner) validate() error {
	if utf8.Valid(s.input) {
		return nil
	}

	pos := Position{Line: 1, Column: 1}

	for pos.Offset < len(s.input) {
		r, size := utf8.DecodeRune(s.input[pos.Offset:])
		if r == utf8.RuneError && size <= 1 {
			return ErrParse.
				With(slog.String("reason", "invalid UTF-8"),
					slog.Int("offset", pos.Offset)).
				At(pos, s.src)
		}

		pos.Offset += size
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return nil
}

func (s *scanner) skipWhitespaceAndComments() error {
	for !s.eof() {
		switch {
		case unicode.IsSpace(s.peek()):
			s.advance()

		case s.peekN(4) == "////" || (s.peekN(2) == "//" && s.peekN(3) != "///"):
			for !s.eof() && s.peek() != '\n' {
				s.advance()
			}

		case s.peekN(2) == "/*":
			pos := s.position()

			s.advance()
			s.advance()

			for !s.eof() && s.peekN(2) != "*/" {
				s.advance()
			}

			if s.eof() {
				return ErrParse.
					With(slog.String("reason", "unterminated block comment")).
					At(pos, s.src)
			}

			s.advance()
			s.advance()

		default:
			return nil
		}
	}

	return nil
}

func (s *scanner) skipString(quote rune) error {
	pos := s.position()

	s.advance() // opening quote

	for !s.eof() {
		ch := s.peek()
		if ch == '\\' && quote != '`' {
			s.advance()

			if !s.eof() {
				s.advance()
			}

			continue
		}

		s.advance()

		if ch == quote {
			return nil
		}
	}

	return ErrParse.
		With(slog.String("reason", "unterminated string")).
		At(pos, s.src)
}

func isCloser(r rune) bool { return r == '}' || r == ')' || r == ']' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return isIdentifierStart(r) || unicode.In(r,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
