package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	require.NoError(t, err)

	return v
}

func TestResolve(t *testing.T) {
	const doc = `
log_level: debug
log:
  format: json
max-depth: 32
rules: [a.eager, b.yaml]
strict: true
`

	r, err := resolve(context.Background())(strings.NewReader(doc))
	require.NoError(t, err)

	for _, tc := range []struct {
		name string
		want any
	}{
		{"log-level", "debug"},
		{"log_level", "debug"},
		{"log-format", "json"},
		{"max-depth", "32"},
		{"rules", []any{"a.eager", "b.yaml"}},
		{"strict", true},
		{"missing", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveFlag(t, r, tc.name))
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	r, err := resolve(context.Background())(strings.NewReader("log-level: [unclosed"))
	require.NoError(t, err, "invalid configuration is ignored")
	assert.Nil(t, resolveFlag(t, r, "log-level"))

	r, err = resolve(context.Background())(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, resolveFlag(t, r, "log-level"))
}

func TestParse_Configuration(t *testing.T) {
	var cli struct {
		Rules    []string
		MaxDepth int
		Strict   bool
	}

	r, err := resolve(context.Background())(strings.NewReader("rules: [x.eager]\nmax_depth: 7\nstrict: true\n"))
	require.NoError(t, err)

	parser, err := kong.New(&cli, kong.Resolvers(r), kong.Exit(func(int) {}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--max-depth=9"})
	require.NoError(t, err)

	assert.Equal(t, []string{"x.eager"}, cli.Rules)
	assert.Equal(t, 9, cli.MaxDepth, "flags override configuration")
	assert.True(t, cli.Strict)
}
