package retention_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/aihub/internal/retention"
)

func writeFile(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestSweep_RemovesOnlyExpiredAudio(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	oldAudio := writeFile(t, dir, "old.mp3", now.Add(-2*time.Hour))
	oldUpper := writeFile(t, dir, "older.MP3", now.Add(-3*time.Hour))
	freshAudio := writeFile(t, dir, "fresh.mp3", now.Add(-10*time.Minute))
	oldOther := writeFile(t, dir, "notes.txt", now.Add(-48*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0o755))

	janitor, err := retention.New(dir, time.Hour, "", retention.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	removed, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.NoFileExists(t, oldAudio)
	assert.NoFileExists(t, oldUpper)
	assert.FileExists(t, freshAudio)
	assert.FileExists(t, oldOther)
	assert.DirExists(t, filepath.Join(dir, "nested.mp3"))
}

func TestSweep_MissingDirectory(t *testing.T) {
	janitor, err := retention.New(filepath.Join(t.TempDir(), "missing"), time.Hour, "")
	require.NoError(t, err)

	removed, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSweep_CustomExtension(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	wav := writeFile(t, dir, "clip.wav", now.Add(-time.Hour))
	mp3 := writeFile(t, dir, "clip.mp3", now.Add(-time.Hour))

	janitor, err := retention.New(dir, time.Minute, "@every 1m", retention.WithExtension(".wav"))
	require.NoError(t, err)

	removed, err := janitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, wav)
	assert.FileExists(t, mp3)
}

func TestNew_Validation(t *testing.T) {
	_, err := retention.New(t.TempDir(), 0, "")
	assert.Error(t, err)

	_, err = retention.New(t.TempDir(), time.Hour, "not a schedule")
	assert.ErrorContains(t, err, "invalid retention schedule")
}

func TestStartShutdown(t *testing.T) {
	janitor, err := retention.New(t.TempDir(), time.Hour, "@every 1h")
	require.NoError(t, err)

	janitor.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, janitor.Shutdown(ctx))
}
