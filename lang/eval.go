package lang

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluate formats tokens as source text and evaluates the text as an
// expr-lang expression.
//
// The names in env are visible to the expression, and shadow the builtins
// returned by [Builtins].
func Evaluate(ctx context.Context, tokens []Token, env map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := String(tokens)

	scope := Builtins()
	maps.Copy(scope, env)

	program, err := expr.Compile(source, expr.Env(scope))
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	result, err := vm.Run(program, scope)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return result, nil
}

//nolint:gochecknoglobals
var (
	builtinsOnce sync.Once
	builtins     map[string]any
)

// Builtins returns a copy of the names every evaluation can see:
//
//   - env(name): a process environment variable
//   - os, arch: the host platform
//   - cwd(): the working directory
//   - path.join, path.abs, path.base, path.dir
//   - mung.prefix(key, items...): a PATH-like list with items moved to the
//     front
func Builtins() map[string]any {
	builtinsOnce.Do(func() {
		builtins = map[string]any{
			"env":  os.Getenv,
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
			"cwd": func() string {
				wd, _ := os.Getwd()

				return wd
			},
			"path": map[string]any{
				"join": filepath.Join,
				"abs": func(p string) string {
					if abs, err := filepath.Abs(p); err == nil {
						return abs
					}

					return p
				},
				"base": filepath.Base,
				"dir":  filepath.Dir,
			},
			"mung": map[string]any{
				"prefix": func(key string, items ...string) string {
					return mung.Make(
						mung.WithSubjectItems(key),
						mung.WithDelim(string(os.PathListSeparator)),
						mung.WithPrefixItems(items...),
					).String()
				},
			},
		}
	})

	return maps.Clone(builtins)
}

// BuiltinNames returns the sorted top-level names of [Builtins].
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(Builtins()))
}

// ParseValue converts a command-line value to a bool, integer or float when
// it parses as one, and returns it unchanged otherwise.
func ParseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

// FormatResult renders an evaluation result in expression syntax.
func FormatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "nil"

	case bool:
		return strconv.FormatBool(v)

	case int:
		return strconv.Itoa(v)

	case int64:
		return strconv.FormatInt(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)

	case string:
		return strconv.Quote(v)

	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = FormatResult(e)
		}

		return "[" + strings.Join(parts, ", ") + "]"

	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, strconv.Quote(k)+": "+FormatResult(v[k]))
		}

		return "{" + strings.Join(parts, ", ") + "}"

	default:
		return fmt.Sprint(v)
	}
}
