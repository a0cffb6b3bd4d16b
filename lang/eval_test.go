package lang

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		input string
		env   map[string]any
		want  any
	}{
		{`2 + 1 + 1`, nil, 4},
		{`(5+5) + 1 + (5)`, nil, 16},
		{`"Success"`, nil, "Success"},
		{`x * 2`, map[string]any{"x": 21}, 42},
		{`len([1, 2, 3])`, nil, 3},
		{`os != ""`, nil, true},
		{`path.join("a", "b")`, nil, "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Evaluate(context.Background(), MustScan(tt.input), tt.env)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := Evaluate(ctx, MustScan(`1 +`), nil); !errors.Is(err, ErrExprCompile) {
		t.Errorf("got %v, want ErrExprCompile", err)
	}

	if _, err := Evaluate(ctx, MustScan(`f()`), map[string]any{
		"f": func() (int, error) { return 0, errors.New("boom") },
	}); !errors.Is(err, ErrExprEvaluate) {
		t.Errorf("got %v, want ErrExprEvaluate", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := Evaluate(cctx, MustScan(`1`), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestBuiltins_Isolated(t *testing.T) {
	b := Builtins()
	b["os"] = "mutated"

	if Builtins()["os"] == "mutated" {
		t.Error("Builtins shares its map with callers")
	}

	if !cmp.Equal(BuiltinNames(), []string{"arch", "cwd", "env", "mung", "os", "path"}) {
		t.Errorf("BuiltinNames = %v", BuiltinNames())
	}
}

func TestParseValue(t *testing.T) {
	for in, want := range map[string]any{
		"true": true,
		"1":    int64(1),
		"0x10": int64(16),
		"1.5":  1.5,
		"abc":  "abc",
	} {
		if got := ParseValue(in); got != want {
			t.Errorf("ParseValue(%q) = %#v, want %#v", in, got, want)
		}
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "nil"},
		{4, "4"},
		{int64(-2), "-2"},
		{1.5, "1.5"},
		{"Success", `"Success"`},
		{[]any{1, "a"}, `[1, "a"]`},
		{map[string]any{"b": 2, "a": true}, `{"a": true, "b": 2}`},
	}

	for _, tt := range tests {
		if got := FormatResult(tt.in); got != tt.want {
			t.Errorf("FormatResult(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
