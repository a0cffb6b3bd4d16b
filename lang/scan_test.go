package lang

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "atoms",
			input: `foo 42 "s\"q" 'c' + _x1`,
			want: []Token{
				Ident("foo"), Literal("42"), Literal(`"s\"q"`),
				Literal("'c'"), Punct("+"), Ident("_x1"),
			},
		},
		{
			name:  "numbers",
			input: `1.5 2e10 3E-2 1u32 1_000 7.`,
			want: []Token{
				Literal("1.5"), Literal("2e10"), Literal("3E-2"),
				Literal("1u32"), Literal("1_000"), Literal("7"), Punct("."),
			},
		},
		{
			name:  "punctuation is split",
			input: `=> ::`,
			want:  []Token{Punct("="), Punct(">"), Punct(":"), Punct(":")},
		},
		{
			name:  "groups",
			input: `f(a, [b]) {}`,
			want: []Token{
				Ident("f"),
				Group(DelimRound, Ident("a"), Punct(","), Group(DelimSquare, Ident("b"))),
				Group(DelimCurly),
			},
		},
		{
			name:  "comments",
			input: "a // line\nb /* block */ c //// not doc\n",
			want:  []Token{Ident("a"), Ident("b"), Ident("c")},
		},
		{
			name:  "doc comment",
			input: "/// Some docs\nx",
			want: []Token{
				Punct("#"),
				Group(DelimSquare, Ident("doc"), Punct("="), Literal(`"Some docs"`)),
				Ident("x"),
			},
		},
		{
			name:  "raw string",
			input: "`a\\b`",
			want:  []Token{Literal("`a\\b`")},
		},
		{
			name:  "lone quote",
			input: `'a`,
			want:  []Token{Punct("'"), Ident("a")},
		},
		{
			name:  "unicode identifiers",
			input: `héllo 世界`,
			want:  []Token{Ident("héllo"), Ident("世界")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}

			if diff := diffTokens(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestScan_Joint(t *testing.T) {
	got := MustScan(`a!{b} c+ d`)

	joint := make([]bool, len(got))
	for i, tok := range got {
		joint[i] = tok.Joint
	}

	// a ! {b} c + d
	if diff := cmp.Diff([]bool{true, true, false, true, false, false}, joint); diff != "" {
		t.Errorf("joint flags (-want +got):\n%s", diff)
	}

	if s := String(got); s != `a!{b} c+ d` {
		t.Errorf("String = %q", s)
	}
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
		line   string
	}{
		{"unexpected close", "a\n  )", "unexpected closing delimiter", "line 2, column 3"},
		{"mismatched close", "(a]", "unexpected closing delimiter", "line 1, column 3"},
		{"unclosed", "{ a (b)", "unclosed delimiter", "line 1, column 1"},
		{"unterminated string", `x "abc`, "unterminated string", "line 1, column 3"},
		{"unterminated comment", "a /* open", "unterminated block comment", "line 1, column 3"},
		{"comment only", "/* open\n b", "unterminated block comment", "line 1, column 1"},
		{"invalid utf-8", "a \xff b", "invalid UTF-8", "line 1, column 3"},
		{"truncated utf-8", "ok\n \u00e9\xc3", "invalid UTF-8", "line 2, column 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(context.Background(), tt.input)
			if !errors.Is(err, ErrParse) {
				t.Fatalf("got %v, want ErrParse", err)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("%T is not *Error", err)
			}

			if !strings.Contains(e.Error(), tt.line) {
				t.Errorf("error %q does not mention %q", e.Error(), tt.line)
			}

			if !strings.Contains(e.LogValue().String(), tt.reason) {
				t.Errorf("log value %q does not mention %q", e.LogValue(), tt.reason)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tokens := MustScan(`struct S { x: [u8; 2] }`)

	var b strings.Builder
	if err := Format(&b, tokens); err != nil {
		t.Fatal(err)
	}

	if got := b.String(); got != `struct S {x: [u8; 2]}` {
		t.Errorf("Format = %q", got)
	}

	var js strings.Builder
	if err := FormatJSON(&js, MustScan(`(a)`), 0); err != nil {
		t.Fatal(err)
	}

	const wantJSON = `[{"kind":"group","delim":"()","tokens":[{"kind":"ident","text":"a"}]}]` + "\n"
	if js.String() != wantJSON {
		t.Errorf("FormatJSON = %q", js.String())
	}

	var ys strings.Builder
	if err := FormatYAML(context.Background(), &ys, MustScan(`a`), 2); err != nil {
		t.Fatal(err)
	}

	if got := ys.String(); !strings.Contains(got, "kind: ident") || !strings.Contains(got, "text: a") {
		t.Errorf("FormatYAML = %q", got)
	}
}

func TestReverse(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		in := make([]Token, n)
		for i := range in {
			in[i] = Literal(string(rune('a' + i)))
		}

		got := Reverse(in)
		if len(got) != n {
			t.Fatalf("len = %d, want %d", len(got), n)
		}

		for i := range got {
			if got[i].Text != in[n-1-i].Text {
				t.Errorf("Reverse(%s)[%d] = %s", String(in), i, got[i])
			}
		}
	}
}
