package lang

// Class is the structural category of the token at the front of an input.
type Class uint8

const (
	ClassSimple         Class = iota // simple
	ClassGroupOpen                   // group
	ClassInvocationHead              // invocation
	ClassModeKeyword                 // keyword
)

// Mode is the expansion mode of a decode frame.
// The string form of a mode is the keyword that opens a region of it.
type Mode uint8

const (
	ModeExpand   Mode = iota // eager
	ModeRestrict             // lazy
)

// Opposite returns the other mode.
func (m Mode) Opposite() Mode { return m ^ 1 }

// callMarker separates an invocation head from its argument group.
const callMarker = "!"

// Classification describes the front of an input as seen by the engine.
type Classification struct {
	Body  []Token // keyword body or invocation arguments
	Name  string  // invocation name
	Class Class
	Mode  Mode
	Delim Delimiter
	Width int // number of input tokens covered
}

// Classify inspects the front of input. Unrecognized shapes, including an
// empty input, classify as [ClassSimple]; classification never fails.
func Classify(input []Token) Classification {
	if len(input) == 0 {
		return Classification{Class: ClassSimple}
	}

	head := input[0]
	if head.IsGroup() {
		return Classification{
			Class: ClassGroupOpen,
			Delim: head.Delim,
			Body:  head.Tokens,
			Width: 1,
		}
	}

	name, args, ok := invocation(input)
	if !ok {
		return Classification{Class: ClassSimple, Width: 1}
	}

	c := Classification{
		Class: ClassInvocationHead,
		Name:  name,
		Body:  args.Tokens,
		Delim: args.Delim,
		Width: 3,
	}

	if mode, ok := keywordMode(name); ok {
		c.Class = ClassModeKeyword
		c.Mode = mode
	}

	return c
}

// invocation reports whether input starts with `name ! group`.
func invocation(input []Token) (name string, args Token, ok bool) {
	if len(input) < 3 ||
		input[0].Kind != KindIdent ||
		!input[1].IsPunct(callMarker) ||
		!input[2].IsGroup() {
		return "", Token{}, false
	}

	return input[0].Text, input[2], true
}

// keywordMode returns the mode opened by the keyword name.
func keywordMode(name string) (Mode, bool) {
	switch name {
	case ModeExpand.String():
		return ModeExpand, true
	case ModeRestrict.String():
		return ModeRestrict, true
	}

	return 0, false
}

// Keyword returns the tokens `<mode>!{body}`.
func Keyword(m Mode, body ...Token) []Token {
	return []Token{
		{Kind: KindIdent, Text: m.String(), Joint: true},
		{Kind: KindPunct, Text: callMarker, Joint: true},
		Group(DelimCurly, body...),
	}
}
