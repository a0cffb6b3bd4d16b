package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.eager", "a")
	b := writeFile(t, dir, "b.eager", "b")

	link := filepath.Join(dir, "link.eager")
	require.NoError(t, os.Symlink(a, link))

	src, err := OpenSources([]string{"-", a, b, link, a, "-"}, strings.NewReader("stdin"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = src.Close() })

	assert.Equal(t, []string{a, b, "-"}, src.Names())

	data, err := io.ReadAll(src.Reader())
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nstdin", string(data))
}

func TestOpenSources_Errors(t *testing.T) {
	_, err := OpenSources(nil, nil)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = OpenSources([]string{filepath.Join(t.TempDir(), "missing")}, nil)
	assert.ErrorIs(t, err, ErrOpenSource)
}
