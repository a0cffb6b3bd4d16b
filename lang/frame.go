package lang

import "strings"

// frame is one level of decode state.
//
// The prefix holds decoded tokens in forward order. Its last element is the
// most recently decoded entry, which is the front of the logical reverse
// accumulator.
type frame struct {
	suffix  []Token
	prefix  []Token
	postfix []Token
	group   *pending
	mode    Mode
}

// pending is a group whose contents are being decoded one level down.
type pending struct {
	tokens []Token
	delim  Delimiter
}

// head reports whether the most recent prefix entries form an invocation
// head, i.e. an identifier followed by the call marker.
func (f *frame) head() (string, bool) {
	n := len(f.prefix)
	if n < 2 || !f.prefix[n-1].IsPunct(callMarker) || f.prefix[n-2].Kind != KindIdent {
		return "", false
	}

	return f.prefix[n-2].Text, true
}

// String renders f in level notation:
//
//	[mode [suffix] [reverse prefix] [postfix] group]
func (f *frame) String() string {
	var b strings.Builder

	b.WriteString("[")
	b.WriteString(f.mode.String())
	b.WriteString(" [")
	b.WriteString(String(f.suffix))
	b.WriteString("] [")
	b.WriteString(String(Reverse(f.prefix)))
	b.WriteString("] [")
	b.WriteString(String(f.postfix))
	b.WriteString("]")

	if f.group != nil {
		b.WriteString(" ")
		b.WriteString(Group(f.group.delim, f.group.tokens...).String())
	}

	b.WriteString("]")

	return b.String()
}

// Resumption is the saved decode state handed to an expander under dispatch.
// The expander routes its replacement back to the engine together with the
// resumption, and decoding continues where the invocation was found.
type Resumption struct {
	stack []frame
}

// Depth returns the number of frames held by r.
func (r *Resumption) Depth() int {
	if r == nil {
		return 0
	}

	return len(r.stack)
}

// Mode returns the mode of the frame the invocation was found in.
func (r *Resumption) Mode() Mode {
	if r.Depth() == 0 {
		return ModeExpand
	}

	return r.stack[len(r.stack)-1].mode
}

// String renders the frames of r, innermost first, one per line.
func (r *Resumption) String() string {
	if r == nil {
		return ""
	}

	return renderStack(r.stack)
}

func renderStack(stack []frame) string {
	lines := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		lines = append(lines, stack[i].String())
	}

	return strings.Join(lines, "\n")
}
