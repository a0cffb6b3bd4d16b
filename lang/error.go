package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrUnresolvedInvocation = NewError("unresolved invocation")
	ErrNoMatchingRule       = NewError("no rules expected this input")
	ErrNotEagerEnabled      = NewError("expander is not dispatch-enabled")
	ErrRecursionLimit       = NewError("recursion limit reached")
	ErrAmbiguousRule        = NewError("rule is ambiguous with the dispatch form")
	ErrSentinelCollision    = NewError("pattern variable collides with sentinel")
	ErrDeclaration          = NewError("invalid declaration")
	ErrPattern              = NewError("invalid pattern")
	ErrTranscribe           = NewError("transcription failed")
	ErrParse                = NewError("parse error")
	ErrReadInput            = NewError("failed to read input")
	ErrExprCompile          = NewError("expression compilation failed")
	ErrExprEvaluate         = NewError("expression evaluation failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   *Position
	src   string
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.pos != nil {
		part = append(part, e.pos.String())
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	msg := strings.Join(part, ": ")

	if e.pos != nil && e.src != "" {
		msg += "\n" + snippet(e.src, *e.pos)
	}

	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
// Errors derived through [Error.With], [Error.Wrap] and [Error.At] share the
// message of their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}

	return t.msg != "" && t.msg == e.msg && t.err == nil && len(t.attrs) == 0
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("position", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return &c
}

// At records the source position of the error. When src is non-empty, the
// error message includes the offending line with a caret under the column.
func (e *Error) At(pos Position, src string) *Error {
	c := *e
	c.pos = &pos
	c.src = src

	return &c
}

// Position identifies a location in scanned source text.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// snippet renders the source line at pos followed by a caret marker.
func snippet(src string, pos Position) string {
	lines := strings.Split(src, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}

	var b strings.Builder

	num := strconv.Itoa(pos.Line)

	b.WriteString("  ")
	b.WriteString(num)
	b.WriteString(" | ")
	b.WriteString(lines[pos.Line-1])
	b.WriteByte('\n')

	// 2 leading spaces + " | "
	b.WriteString(strings.Repeat(" ", len(num)+5))

	if pos.Column > 1 {
		b.WriteString(strings.Repeat(" ", pos.Column-1))
	}

	b.WriteString("^")

	return b.String()
}
