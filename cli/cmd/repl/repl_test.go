package repl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/eager/lang"
)

func TestSession_Expand(t *testing.T) {
	s := session{registry: testRegistry(t)}
	ctx := context.Background()

	out, n, err := s.expand(ctx, "add!(1, 2) plain!()")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "1 + 2 0", lang.String(out))

	out, n, err = s.expand(ctx, "macro_rules! two { () => { 2 }; }")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, out)

	out, _, err = s.expand(ctx, "eager!{ add!(two!(), 3) }")
	require.Error(t, err, "two is not eager-enabled")
	assert.ErrorIs(t, err, lang.ErrNotEagerEnabled)
	assert.Nil(t, out)

	out, _, err = s.expand(ctx, "add!(two!(), 3)")
	require.NoError(t, err)
	assert.Equal(t, "2 + 3", lang.String(out))
}

func TestSession_Eval(t *testing.T) {
	s := session{registry: testRegistry(t)}

	got, err := s.eval(context.Background(), "add!(20, 1)")
	require.NoError(t, err)
	assert.Equal(t, "21", lang.FormatResult(got))

	_, err = s.eval(context.Background(), "missing!()")
	assert.ErrorIs(t, err, lang.ErrUnresolvedInvocation)
}

func TestSession_ShowList(t *testing.T) {
	s := session{registry: testRegistry(t)}

	text, err := s.show("add!")
	require.NoError(t, err)
	assert.Contains(t, text, "macro_rules! add {")

	_, err = s.show("missing")
	assert.ErrorIs(t, err, ErrUnknownMacro)

	list := s.list()
	assert.Contains(t, list, "add!")
	assert.Contains(t, list, "plain!")
}

func TestSession_DocumentReplace(t *testing.T) {
	s := session{registry: testRegistry(t)}
	ctx := context.Background()

	data, err := s.document(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: add")

	n, err := s.replace(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"add", "plain"}, s.registry.Names())

	out, _, err := s.expand(ctx, "eager!{ add!(1, 2) }")
	require.NoError(t, err)
	assert.Equal(t, "1 + 2", lang.String(out))

	_, err = s.replace(ctx, []byte("macros: [{name: bad, rules: [{pattern: '($', template: x}]}]"))
	require.Error(t, err)
	assert.Equal(t, []string{"add", "plain"}, s.registry.Names(), "failed edit kept the rules")
}
