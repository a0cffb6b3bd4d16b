package repl

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	require.NoError(t, h.Load(), "missing file is an empty history")

	for _, e := range []HistoryEntry{
		{"add!(1, 2)", modeExpand},
		{"list", modeCtrl},
		{"add!(1, 2)", modeExpand},
		{"  ", modeExpand},
		{"plain!()", modeExpand},
		{"add!(1, 2)", modeExpand},
	} {
		_, err := h.WriteWithMode(e.Line, e.Mode)
		require.NoError(t, err)
	}

	want := []HistoryEntry{
		{"list", modeCtrl},
		{"plain!()", modeExpand},
		{"add!(1, 2)", modeExpand},
	}
	assert.Equal(t, want, h.Entries())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "C:list\nX:plain!()\nX:add!(1, 2)\n", string(data))

	loaded := NewHistory(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, want, loaded.Entries())

	e, err := loaded.GetEntry(0)
	require.NoError(t, err)
	assert.Equal(t, modeCtrl, e.Mode)

	_, err = loaded.GetEntry(3)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestHistory_Bounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for i := range maxHistory + 5 {
		_, err := h.WriteWithMode(strconv.Itoa(i), modeExpand)
		require.NoError(t, err)
	}

	require.Equal(t, maxHistory, h.Len())

	first, err := h.GetEntry(0)
	require.NoError(t, err)
	assert.Equal(t, "5", first.Line)

	loaded := NewHistory(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, maxHistory, loaded.Len())
}

func TestHistoryEntry_Prefix(t *testing.T) {
	for _, e := range []HistoryEntry{
		{Line: "add!(1)", Mode: modeExpand},
		{Line: "show add", Mode: modeCtrl},
	} {
		assert.Equal(t, e, parseHistoryEntry(e.String()))
	}

	assert.Equal(t, HistoryEntry{Line: "plain", Mode: modeExpand}, parseHistoryEntry("plain"))
}
