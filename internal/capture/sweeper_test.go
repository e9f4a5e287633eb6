package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("contents\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestSweeperDeletesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock()
	clk.Set(now)

	stale := writeAged(t, dir, "xctap_capture_stale.log", now.Add(-4*24*time.Hour))
	fresh := writeAged(t, dir, "xctap_capture_fresh.log", now.Add(-1*time.Hour))
	foreign := writeAged(t, dir, "other_tool.log", now.Add(-30*24*time.Hour))

	s := NewSweeper(dir, 72*time.Hour, clk, nil)
	res := s.Sweep()

	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 0, res.Failed)
	assert.Greater(t, res.Freed, int64(0))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)
}

func TestSweeperBoundary(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock()
	clk.Set(now)

	// Exactly at the cutoff is not "older than"; it survives.
	atCutoff := writeAged(t, dir, "xctap_capture_cusp.log", now.Add(-72*time.Hour))
	past := writeAged(t, dir, "xctap_capture_past.log", now.Add(-72*time.Hour-time.Second))

	s := NewSweeper(dir, 72*time.Hour, clk, nil)
	res := s.Sweep()

	assert.Equal(t, 1, res.Deleted)
	assert.FileExists(t, atCutoff)
	assert.NoFileExists(t, past)
}

func TestSweeperDryRun(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock()
	clk.Set(now)

	stale := writeAged(t, dir, "xctap_capture_stale.log", now.Add(-10*24*time.Hour))

	s := NewSweeper(dir, 72*time.Hour, clk, nil)
	res, files := s.Run(true)

	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 0, res.Deleted)
	require.Len(t, files, 1)
	assert.Equal(t, stale, files[0].Path)
	assert.False(t, files[0].Deleted)
	assert.Greater(t, files[0].Age, 72*time.Hour)
	assert.FileExists(t, stale)
}

func TestSweeperMissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "never-created"), time.Hour, clock.NewMock(), nil)
	res := s.Sweep()
	assert.Zero(t, res.Scanned)
	assert.Zero(t, res.Deleted)
}

func TestSweeperDefaults(t *testing.T) {
	s := NewSweeper("", 0, nil, nil)
	assert.Equal(t, DefaultRetention, s.Retention())
	assert.Equal(t, os.TempDir(), s.Dir())
}
