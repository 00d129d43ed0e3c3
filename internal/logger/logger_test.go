package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolkit.log")

	lg, err := New(Config{
		Level:   "info",
		File:    path,
		MaxSize: 10,
	})
	require.NoError(t, err)

	zl := lg.GetZerolog()
	zl.Info().Str("tool", "get_virtual_cards").Msg("invoked")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool":"get_virtual_cards"`)
	assert.Contains(t, string(data), `"message":"invoked"`)
}

func TestNew_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolkit.log")

	lg, err := New(Config{
		Level:   "warn",
		File:    path,
		MaxSize: 10,
	})
	require.NoError(t, err)

	zl := lg.GetZerolog()
	zl.Info().Msg("quiet")
	zl.Warn().Msg("loud")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestNew_RedactsFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolkit.log")

	lg, err := New(Config{
		Level:     "info",
		File:      path,
		MaxSize:   10,
		Redaction: true,
	})
	require.NoError(t, err)

	zl := lg.GetZerolog()
	zl.Info().Str("key", "apik_a1b2c3d4e5f6g7h8").Msg("auth configured")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "apik_a1b2c3d4e5f6g7h8")
	assert.Contains(t, string(data), "[REDACTED]")
}

func TestRotatingFile_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolkit.log")

	// 0 MB max size forces rotation on every write.
	rf, err := newRotatingFile(path, 0, 0, false)
	require.NoError(t, err)

	_, err = rf.Write([]byte(strings.Repeat("x", 128) + "\n"))
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2, "expected the rotated file next to the live one")
}

func TestRotatingFile_PrunesOldLogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolkit.log")

	stale := path + ".20200101-000000"
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0644))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	rf, err := newRotatingFile(path, 10, 7, false)
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale rotated log should be pruned")
}
