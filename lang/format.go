package lang

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// String formats tokens as source text. Adjacent tokens are separated by a
// single space unless the first is joint.
func String(tokens []Token) string {
	var b strings.Builder

	writeTokens(&b, tokens)

	return b.String()
}

// Format writes tokens to w as source text.
func Format(w io.Writer, tokens []Token) error {
	_, err := io.WriteString(w, String(tokens))

	return err
}

func writeTokens(b *strings.Builder, tokens []Token) {
	for i, t := range tokens {
		if t.IsGroup() {
			b.WriteByte(t.Delim.Open())
			writeTokens(b, t.Tokens)
			b.WriteByte(t.Delim.Close())
		} else {
			b.WriteString(t.Text)
		}

		if !t.Joint && i < len(tokens)-1 {
			b.WriteByte(' ')
		}
	}
}

// Tree is the structured form of a token used by JSON and YAML output.
type Tree struct {
	Kind   string `json:"kind"             yaml:"kind"`
	Text   string `json:"text,omitempty"   yaml:"text,omitempty"`
	Delim  string `json:"delim,omitempty"  yaml:"delim,omitempty"`
	Tokens []Tree `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// ToTree converts tokens to their structured form.
func ToTree(tokens []Token) []Tree {
	out := make([]Tree, len(tokens))

	for i, t := range tokens {
		out[i].Kind = t.Kind.String()

		if t.IsGroup() {
			out[i].Delim = t.Delim.String()
			out[i].Tokens = ToTree(t.Tokens)
		} else {
			out[i].Text = t.Text
		}
	}

	return out
}

// FormatJSON writes the structured form of tokens as JSON. An indent below 1
// selects compact output.
func FormatJSON(w io.Writer, tokens []Token, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(ToTree(tokens), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(ToTree(tokens))
	}

	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// FormatYAML writes the structured form of tokens as YAML. An indent below 1
// selects flow style.
func FormatYAML(ctx context.Context, w io.Writer, tokens []Token, indent int) error {
	opt := yaml.Flow(true)
	if indent > 0 {
		opt = yaml.Indent(indent)
	}

	data, err := yaml.MarshalContext(ctx, ToTree(tokens), opt)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
