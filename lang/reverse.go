package lang

// Reverse returns the tokens of a front-inserted accumulator in forward order.
//
// The front element of the remaining input is moved onto the front of the
// result until a single element remains, which is then prepended: N-1 steps
// for N tokens. Only the top level is reversed; group contents keep their
// order.
func Reverse(tokens []Token) []Token {
	if len(tokens) < 2 {
		return tokens
	}

	out := make([]Token, len(tokens))
	front := len(tokens)
	rest := tokens

	for ; len(rest) > 1; rest = rest[1:] {
		front--
		out[front] = rest[0]
	}

	out[0] = rest[0]

	return out
}
