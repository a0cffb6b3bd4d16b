package lang

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const declSource = `
before
eager_macro_rules!{ $eager_1
	///
	/// Some docs
	///
	#[macro_export]
	macro_rules! first { {1} => { 1 }; (2) => [ 2 ]; }
	macro_rules! second { () => {} }
}
middle
#[doc(hidden)]
macro_rules! plain { ($x:tt) => { $x } };
after
`

func TestParseDeclarations(t *testing.T) {
	decls, sentinel, program, err := ParseDeclarations(MustScan(declSource))
	if err != nil {
		t.Fatal(err)
	}

	if sentinel != "eager_1" {
		t.Errorf("sentinel = %q", sentinel)
	}

	if diff := diffTokens(MustScan(`before middle after`), program); diff != "" {
		t.Errorf("program (-want +got):\n%s", diff)
	}

	type summary struct {
		Name  string
		Doc   []string
		Rules int
		Eager bool
	}

	got := make([]summary, len(decls))
	for i, d := range decls {
		got[i] = summary{Name: d.Name, Doc: d.Doc(), Rules: len(d.Rules), Eager: d.Eager}
	}

	want := []summary{
		{Name: "first", Doc: []string{"", "Some docs", ""}, Rules: 2, Eager: true},
		{Name: "second", Rules: 1, Eager: true},
		{Name: "plain", Rules: 1},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("declarations (-want +got):\n%s", diff)
	}

	if diff := diffTokens(MustScan(`#[doc(hidden)]`), decls[2].Meta); diff != "" {
		t.Errorf("plain meta (-want +got):\n%s", diff)
	}

	if diff := diffTokens(MustScan(`2`), decls[0].Rules[1].Pattern); diff != "" {
		t.Errorf("pattern (-want +got):\n%s", diff)
	}
}

func TestParseDeclarations_Errors(t *testing.T) {
	for _, src := range []string{
		`eager_macro_rules!{ $s stray }`,
		`eager_macro_rules!{ #[a] }`,
		`macro_rules! m { (a) }`,
		`macro_rules! m { (a) => (b) (c) => (d) }`,
		`macro_rules! m {}`,
		`macro_rules! { }`,
		`macro_rules! m`,
	} {
		t.Run(src, func(t *testing.T) {
			if _, _, _, err := ParseDeclarations(MustScan(src)); !errors.Is(err, ErrDeclaration) {
				t.Errorf("got %v, want ErrDeclaration", err)
			}
		})
	}
}

func TestDeclare(t *testing.T) {
	decls, sentinel, _, err := ParseDeclarations(MustScan(declSource))
	if err != nil {
		t.Fatal(err)
	}

	macros, err := Declare(sentinel, decls)
	if err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(macros...)

	if diff := cmp.Diff([]string{"first", "plain", "second"}, reg.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}

	first, ok := reg.Macro("first")
	if !ok || !first.Eager() || first.Sentinel() != "eager_1" {
		t.Fatalf("first = %+v", first)
	}

	// Two tagged rules precede two plain rules.
	tagged := make([]bool, len(first.rules))
	for i, r := range first.rules {
		tagged[i] = r.tagged
	}

	if diff := cmp.Diff([]bool{true, true, false, false}, tagged); diff != "" {
		t.Errorf("rule order (-want +got):\n%s", diff)
	}

	plain, _ := reg.Macro("plain")
	if plain.Eager() || len(plain.rules) != 1 || plain.rules[0].tagged {
		t.Errorf("plain rules = %+v", plain.rules)
	}
}

func TestDeclare_Diagnostics(t *testing.T) {
	rule := func(pattern string) []Declaration {
		return []Declaration{{
			Name:  "m",
			Eager: true,
			Rules: []Rule{{Pattern: MustScan(pattern), Template: MustScan(`x`)}},
		}}
	}

	tests := []struct {
		name    string
		decls   []Declaration
		opts    []Option
		want    error
		wantLen int
	}{
		{"sentinel collision", rule(`$eager_1:tt`), nil, ErrSentinelCollision, 0},
		{"custom sentinel", rule(`$eager_1:tt`), []Option{WithSentinel("hygiene")}, nil, 1},
		{"leading @eager allowed", rule(`@eager $x:tt`), nil, nil, 1},
		{"leading @eager strict", rule(`@eager $x:tt`), []Option{WithStrictRules(true)}, ErrAmbiguousRule, 0},
		{"catch-all strict", rule(`$($x:tt)*`), []Option{WithStrictRules(true)}, ErrAmbiguousRule, 0},
		{"constrained strict", rule(`$($x:ident)*`), []Option{WithStrictRules(true)}, nil, 1},
		{"bad pattern", rule(`$x:nope`), nil, ErrPattern, 0},
		{"missing name", []Declaration{{}}, nil, ErrDeclaration, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			macros, err := Declare("", tt.decls, tt.opts...)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}

			if len(macros) != tt.wantLen {
				t.Errorf("got %d macros, want %d", len(macros), tt.wantLen)
			}
		})
	}
}

func TestMacro_Format(t *testing.T) {
	reg, _ := declared(t, `
eager_macro_rules!{ $eager_1
	/// Adds.
	macro_rules! add { ($a:expr, $b:expr) => { $a + $b }; }
}`)

	m, _ := reg.Macro("add")

	var b strings.Builder
	if err := m.Format(&b); err != nil {
		t.Fatal(err)
	}

	const want = `#[doc = "Adds."]
macro_rules! add {
    {@eager[$($eager_1:tt)*] $a:expr, $b:expr} => {eager!{$a + $b}};
    {$a:expr, $b:expr} => {$a + $b};
}
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Format (-want +got):\n%s", diff)
	}
}

func TestParseDeclarationsYAML(t *testing.T) {
	const src = `
sentinel: eager_1
macros:
  - name: add
    eager: true
    doc: ["Adds two expressions."]
    attrs: ["macro_export"]
    rules:
      - pattern: "($a:expr, $b:expr)"
        template: "$a + $b"
  - name: two_and_three
    eager: true
    rules:
      - pattern: "()"
        template: "2, 3"
`

	ctx := context.Background()

	decls, sentinel, err := ParseDeclarationsYAML(ctx, []byte(src))
	if err != nil {
		t.Fatal(err)
	}

	macros, err := Declare(sentinel, decls)
	if err != nil {
		t.Fatal(err)
	}

	out, err := NewEngine(NewRegistry(macros...)).Eager(ctx, MustScan(`add!(two_and_three!())`))
	if err != nil {
		t.Fatal(err)
	}

	if diff := diffTokens(MustScan(`2 + 3`), out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"Adds two expressions."}, macros[0].Doc()); diff != "" {
		t.Errorf("Doc (-want +got):\n%s", diff)
	}

	doc := Document(sentinel, macros)
	if diff := cmp.Diff([]string{"macro_export"}, doc.Macros[0].Attrs); diff != "" {
		t.Errorf("Attrs (-want +got):\n%s", diff)
	}

	data, err := doc.Marshal(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}

	again, _, err := ParseDeclarationsYAML(ctx, data)
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, data)
	}

	if len(again) != 2 || again[0].Name != "add" || !Equal(again[0].Rules[0].Pattern, decls[0].Rules[0].Pattern) {
		t.Errorf("re-parsed declarations differ:\n%s", data)
	}
}

func TestParseDeclarationsYAML_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown field": "macros:\n  - name: m\n    bogus: 1\n",
		"bad pattern":   "macros:\n  - name: m\n    rules:\n      - pattern: \"(\"\n        template: x\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseDeclarationsYAML(context.Background(), []byte(src))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	reg, _ := declared(t, `eager_macro_rules!{ $eager_1 macro_rules! one { () => { 1 }; } }`)
	m, _ := reg.Macro("one")
	eng := NewEngine(reg)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				reg.Replace(m)

				if _, err := eng.Eager(context.Background(), MustScan(`one!() one!()`)); err != nil {
					t.Error(err)

					return
				}
			}
		}()
	}

	wg.Wait()

	if reg.Len() != 1 {
		t.Errorf("Len = %d", reg.Len())
	}
}
