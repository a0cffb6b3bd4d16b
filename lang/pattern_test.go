package lang

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{``, ``, true},
		{``, `x`, false},
		{`a b`, `a b`, true},
		{`a b`, `a c`, false},
		{`{1}{2}`, `{1}{2}`, true},
		{`{1 2}`, `{1}{2}`, false},
		{`(1)`, `[1]`, false},
		{`$x`, `(a b)`, true},
		{`$x:ident`, `foo`, true},
		{`$x:ident`, `1`, false},
		{`$x:literal`, `-1`, true},
		{`$x:literal`, `"s"`, true},
		{`$x:block`, `{ a }`, true},
		{`$x:block`, `( a )`, false},
		{`$a:expr, $b:expr`, `1 + 2, f(3)`, true},
		{`$a:expr => $b:tt`, `x + 1 => y`, true},
		{`$a:expr`, ``, false},
		{`$($x:tt)*`, ``, true},
		{`$($x:tt)+`, ``, false},
		{`$($x:ident),+`, `a, b, c`, true},
		{`$($x:ident),+`, `a, b,`, false},
		{`$($x:ident);*`, `a; b`, true},
		{`$($x:tt)? end`, `end`, true},
		{`$($x:tt)? end`, `a end`, true},
		{`$($x:tt)? end`, `a b end`, false},
		{`$($x:tt)* ; $last:tt`, `1 2 3 ; 4`, true},
		{`$($k:ident = $v:expr),*`, `a = 1, b = 2 + 3`, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.input, func(t *testing.T) {
			p, err := CompilePattern(MustScan(tt.pattern))
			if err != nil {
				t.Fatalf("CompilePattern: %v", err)
			}

			if _, got := p.Match(MustScan(tt.input)); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPattern_Bindings(t *testing.T) {
	p, err := CompilePattern(MustScan(`$name:ident { $($k:ident : $v:expr),* }`))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"name", "k", "v"}, p.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}

	b, ok := p.Match(MustScan(`point { x : 1, y : 2 * 3 }`))
	if !ok {
		t.Fatal("no match")
	}

	if got := String(b["name"].Tokens); got != "point" {
		t.Errorf("name = %q", got)
	}

	k := b["k"]
	if !k.Repeated || len(k.Seq) != 2 {
		t.Fatalf("k = %+v, want two repetitions", k)
	}

	if diff := diffTokens(MustScan(`2 * 3`), b["v"].Seq[1].Tokens); diff != "" {
		t.Errorf("v[1] (-want +got):\n%s", diff)
	}
}

func TestPattern_CompileErrors(t *testing.T) {
	for _, src := range []string{
		`$x:bogus`,
		`$x $x`,
		`$( $x )`,
		`$( $x ) ,`,
		`$($($a:tt)*)* z`,
		`$($($a:tt)?)+`,
		`$($($a:tt)*),*`,
	} {
		t.Run(src, func(t *testing.T) {
			if _, err := CompilePattern(MustScan(src)); !errors.Is(err, ErrPattern) {
				t.Errorf("got %v, want ErrPattern", err)
			}
		})
	}
}

func TestRepetitionOp(t *testing.T) {
	tests := []struct {
		input    string
		sep      string
		op       byte
		consumed int
		ok       bool
	}{
		{`*`, ``, '*', 1, true},
		{`+ rest`, ``, '+', 1, true},
		{`, *`, `,`, '*', 2, true},
		{`; +`, `;`, '+', 2, true},
		{`=> ?`, ``, 0, 0, false},
		{`,`, ``, 0, 0, false},
		{``, ``, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sep, op, n, ok := repetitionOp(MustScan(tt.input))
			if ok != tt.ok || op != tt.op || n != tt.consumed {
				t.Fatalf("got (%q, %d, %v), want (%q, %d, %v)", op, n, ok, tt.op, tt.consumed, tt.ok)
			}

			var gotSep string
			if sep != nil {
				gotSep = sep.Text
			}

			if gotSep != tt.sep {
				t.Errorf("sep = %q, want %q", gotSep, tt.sep)
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		template string
		want     string
	}{
		{"substitution", `$a:expr, $b:expr`, `1, 2 * 3`, `$a + $b`, `1 + 2 * 3`},
		{"expr spliced bare", `$x:expr`, `1 + 2`, `$x * 2`, `1 + 2 * 2`},
		{"expr grouped by template", `$x:expr`, `1 + 2`, `($x) * 2`, `(1 + 2) * 2`},
		{"groups kept", `$x`, `y`, `f($x) [$x] {$x}`, `f(y) [y] {y}`},
		{"unbound copied", `$x`, `y`, `$crate::$x`, `$crate::y`},
		{"repetition", `$($x:tt)*`, `a b c`, `$([$x])*`, `[a] [b] [c]`},
		{"separator", `$($x:tt)*`, `a b c`, `$($x),*`, `a, b, c`},
		{"paired", `$($k:ident = $v:tt),*`, `a = 1, b = 2`, `$($k: $v;)*`, `a: 1; b: 2;`},
		{"fixed inside repetition", `$f:ident $($x:tt)*`, `g 1 2`, `$($f($x))*`, `g(1) g(2)`},
		{"empty repetition", `$($x:tt)*`, ``, `[$($x)*]`, `[]`},
		{
			"nested repetition",
			`$( ( $($x:tt)* ) )*`, `(a b) (c)`,
			`$( { $( $x )|* } )*`, `{a | b} {c}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(MustScan(tt.pattern))
			if err != nil {
				t.Fatal(err)
			}

			b, ok := p.Match(MustScan(tt.input))
			if !ok {
				t.Fatal("no match")
			}

			got, err := Transcribe(MustScan(tt.template), b)
			if err != nil {
				t.Fatal(err)
			}

			if diff := diffTokens(MustScan(tt.want), got); diff != "" {
				t.Errorf("(-want +got):\n%s\ngot: %s", diff, String(got))
			}
		})
	}
}

func TestTranscribe_Errors(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		template string
	}{
		{"still repeating", `$($x:tt)*`, `a b`, `$x`},
		{"no repeated variable", `$y:tt`, `a`, `$($y)*`},
		{"count mismatch", `$($x:tt)* ; $($y:tt)*`, `a b ; c`, `$($x $y)*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompilePattern(MustScan(tt.pattern))
			if err != nil {
				t.Fatal(err)
			}

			b, ok := p.Match(MustScan(tt.input))
			if !ok {
				t.Fatal("no match")
			}

			if _, err := Transcribe(MustScan(tt.template), b); !errors.Is(err, ErrTranscribe) {
				t.Errorf("got %v, want ErrTranscribe", err)
			}
		})
	}
}

func TestPattern_MatchBudget(t *testing.T) {
	// Every split of the input into runs is tried before giving up.
	p, err := CompilePattern(MustScan(`$($($a:tt)+)* z`))
	if err != nil {
		t.Fatal(err)
	}

	input := MustScan(strings.Repeat("x ", 24))

	if _, ok, err := p.MatchContext(context.Background(), input, 1<<12); ok || !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("MatchContext = %v, %v, want ErrRecursionLimit", ok, err)
	}

	if _, ok := p.Match(input); ok {
		t.Error("Match over budget reported a match")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := p.MatchContext(ctx, input, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("MatchContext = %v, want context.Canceled", err)
	}

	b, ok, err := p.MatchContext(context.Background(), MustScan(`x x z`), 1<<12)
	if err != nil || !ok {
		t.Fatalf("MatchContext = %v, %v", ok, err)
	}

	if got := len(b["a"].Seq); got != 1 {
		t.Errorf("outer iterations = %d, want 1", got)
	}
}

func TestMacro_MatchBudget(t *testing.T) {
	macros, err := Declare("", []Declaration{{
		Name:  "runs",
		Rules: []Rule{{Pattern: MustScan(`$($($a:tt)+)* z`), Template: MustScan(`ok`)}},
	}}, WithMaxMatchSteps(1<<10))
	if err != nil {
		t.Fatal(err)
	}

	call := Direct("runs", MustScan(strings.Repeat("x ", 24))...)

	if _, err := macros[0].Expand(context.Background(), call); !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("Expand = %v, want ErrRecursionLimit", err)
	}
}
