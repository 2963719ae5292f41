package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmlab/strobetx/internal/engine"
	"github.com/tmlab/strobetx/internal/trace"
)

func writeTrace(t *testing.T, path string, count int) string {
	t.Helper()
	store, err := trace.Open(path)
	require.NoError(t, err)
	defer store.Close()

	for n := 1; n <= count; n++ {
		require.NoError(t, store.Record(engine.Transmission{
			Seq:     int64(n),
			Total:   uint64(n),
			Mode:    engine.ModeAll,
			Counter: uint32(n),
			Payload: engine.Derive(uint32(n), 0, engine.ModeAll),
			Wire:    [4]byte{byte(n), byte(n), byte(n), byte(n)},
			SentAt:  time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
		}))
	}
	return store.Session()
}

func TestReplay_RendersRecordedTransmissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strobe.db")
	session := writeTrace(t, path, 1)

	out, err := execute(t, "replay", "--db", path)
	require.NoError(t, err)

	assert.Contains(t, out, "HEX    : 01 01 01 01")
	assert.Contains(t, out, "Replayed 1 transmission(s) from session "+session)
}

func TestReplay_SelectsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strobe.db")
	first := writeTrace(t, path, 2)
	second := writeTrace(t, path, 1)

	// Default is the most recent session.
	out, err := execute(t, "replay", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 1 transmission(s) from session "+second)

	// An explicit session wins.
	out, err = execute(t, "replay", "--db", path, "--session", first)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 transmission(s) from session "+first)
}

func TestReplay_ListsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strobe.db")
	first := writeTrace(t, path, 1)
	second := writeTrace(t, path, 1)

	out, err := execute(t, "replay", "--db", path, "--sessions")
	require.NoError(t, err)
	assert.Contains(t, out, first)
	assert.Contains(t, out, second)
}

func TestReplay_EmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strobe.db")
	store, err := trace.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "replay", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded transmissions.")

	out, err = execute(t, "replay", "--db", path, "--sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "No recorded sessions.")
}

func TestReplay_RequiresDatabaseFlag(t *testing.T) {
	_, err := execute(t, "replay")
	require.Error(t, err)
}
