package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/xctap/internal/capture"
)

func TestSweepCmd_DryRun(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)
	store := capture.NewFileStore(globals.Config.Capture.Dir)

	stale := seedCaptureFile(t, store, "stale", "com.example.a", "structured", 48*time.Hour)
	fresh := seedCaptureFile(t, store, "fresh", "com.example.a", "structured", time.Hour)

	cmd := &SweepCmd{DryRun: true, Retention: "24h"}
	require.NoError(t, cmd.Run(globals))

	events := decodeNDJSON(t, stdout.String())
	require.Len(t, events, 2)

	assert.Equal(t, "capture_file", events[0]["type"])
	assert.Equal(t, stale, events[0]["path"])

	result := events[1]
	assert.Equal(t, "sweep_result", result["type"])
	assert.Equal(t, true, result["dry_run"])
	assert.EqualValues(t, 2, result["scanned"])
	assert.EqualValues(t, 1, result["matched"])
	assert.EqualValues(t, 0, result["deleted"])

	// Dry run keeps everything on disk.
	assert.FileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestSweepCmd_DeletesStaleFiles(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)
	store := capture.NewFileStore(globals.Config.Capture.Dir)

	stale := seedCaptureFile(t, store, "stale", "com.example.a", "structured", 48*time.Hour)
	fresh := seedCaptureFile(t, store, "fresh", "com.example.a", "structured", time.Hour)

	cmd := &SweepCmd{Retention: "24h"}
	require.NoError(t, cmd.Run(globals))

	events := decodeNDJSON(t, stdout.String())
	require.Len(t, events, 1)

	result := events[0]
	assert.Equal(t, "sweep_result", result["type"])
	assert.EqualValues(t, 1, result["deleted"])
	assert.Greater(t, result["freed_bytes"].(float64), float64(0))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestSweepCmd_InvalidRetention(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &SweepCmd{Retention: "bogus"}
	err := cmd.Run(globals)
	require.Error(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	assert.Equal(t, "INVALID_RETENTION", ev["code"])
}

func TestSweepCmd_TextOutput(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)
	globals.Format = "text"
	globals.Quiet = false
	store := capture.NewFileStore(globals.Config.Capture.Dir)

	seedCaptureFile(t, store, "stale", "com.example.a", "structured", 48*time.Hour)

	cmd := &SweepCmd{Retention: "24h"}
	require.NoError(t, cmd.Run(globals))

	assert.Contains(t, stdout.String(), "Deleted 1 of 1 stale capture files")
}
