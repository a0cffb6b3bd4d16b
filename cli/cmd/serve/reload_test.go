package serve

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/eager/log"
)

func TestWatch_Debounced(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.eager")
	other := filepath.Join(dir, "notes.txt")

	require.NoError(t, os.WriteFile(rules, []byte("a"), 0o600))

	var calls atomic.Int32

	closer, err := Watch(context.Background(), []string{rules}, 50*time.Millisecond,
		func(context.Context) error {
			calls.Add(1)

			return nil
		}, log.Logger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))

	for range 5 {
		require.NoError(t, os.WriteFile(rules, []byte("b"), 0o600))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, closer.Close())
}

func TestShouldTriggerReload(t *testing.T) {
	abs, err := filepath.Abs("rules.eager")
	require.NoError(t, err)

	watched := map[string]struct{}{abs: {}}

	tests := []struct {
		evt  fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "rules.eager", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: abs, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "rules.eager", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "other.eager", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: ".rules.eager.swp", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: " ", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldTriggerReload(tt.evt, watched), tt.evt.String())
	}
}
