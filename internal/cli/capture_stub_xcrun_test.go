package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vburojevic/xctap/internal/config"
)

// stubCLIXcrun installs a fake xcrun covering the simctl calls CaptureCmd
// makes: device resolution, structured streaming, and console launch.
func stubCLIXcrun(t *testing.T) {
	t.Helper()
	stubDir := t.TempDir()
	xcrunPath := filepath.Join(stubDir, "xcrun")

	script := `#!/bin/sh
set -eu

if [ "$#" -ge 4 ] && [ "$1" = "simctl" ] && [ "$2" = "list" ] && [ "$3" = "devices" ] && [ "$4" = "--json" ]; then
  cat <<'EOF'
{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-17-0": [
      {
        "udid": "TEST-UDID-123",
        "name": "iPhone 17 Pro",
        "state": "Booted",
        "isAvailable": true,
        "deviceTypeIdentifier": "com.apple.CoreSimulator.SimDeviceType.iPhone-17-Pro",
        "dataPath": "/tmp",
        "logPath": "/tmp"
      }
    ]
  }
}
EOF
  exit 0
fi

if [ "$#" -ge 5 ] && [ "$1" = "simctl" ] && [ "$2" = "spawn" ] && [ "$4" = "log" ] && [ "$5" = "stream" ]; then
  echo 'Filtering the log data using "subsystem == com.example.myapp"'
  echo '2025-12-15 00:00:00.000000+0000 0x1e4 Default 0x0 123 0 MyApp: [com.example.myapp:network] request started'
  # Keep streaming until the controller stops us.
  # Use exec so the process we spawned is the one that sleeps (no orphan child).
  exec sleep 60
fi

if [ "$#" -ge 2 ] && [ "$1" = "simctl" ] && [ "$2" = "launch" ]; then
  echo 'MyApp console output line'
  exit 0
fi

echo "stub: unsupported xcrun args: $*" >&2
exit 1
`
	require.NoError(t, os.WriteFile(xcrunPath, []byte(script), 0o755))
	t.Setenv("PATH", stubDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	// Keep the last-capture state file out of the real home directory.
	t.Setenv("HOME", t.TempDir())
}

func captureTestGlobals(t *testing.T) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Capture.Dir = t.TempDir()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Globals{
		Format: "ndjson",
		Quiet:  true,
		Stdout: stdout,
		Stderr: stderr,
		Config: cfg,
	}, stdout, stderr
}

func TestCaptureDuration_WithStubXcrun(t *testing.T) {
	stubCLIXcrun(t)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &CaptureCmd{
		App:      "com.example.myapp",
		Duration: "500ms",
		Show:     true,
	}
	require.NoError(t, cmd.Run(globals))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	var started map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &started))
	require.Equal(t, "session_started", started["type"])
	require.Equal(t, "simulator", started["kind"])
	require.Equal(t, "TEST-UDID-123", started["target"])
	require.Equal(t, "com.example.myapp", started["app"])
	require.Equal(t, "structured", started["mode"])
	require.NotEmpty(t, started["session_id"])
	require.NotEmpty(t, started["log_path"])

	var stopped map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &stopped))
	require.Equal(t, "session_stopped", stopped["type"])
	require.Equal(t, started["session_id"], stopped["session_id"])
	require.Greater(t, stopped["bytes"].(float64), float64(0))

	content, _ := stopped["content"].(string)
	require.Contains(t, content, "request started")

	// The file outlives the command for sessions/browse.
	logPath, _ := stopped["log_path"].(string)
	require.FileExists(t, logPath)
}

func TestCaptureDryRunJSON_WithStubXcrun(t *testing.T) {
	stubCLIXcrun(t)
	globals, stdout, _ := captureTestGlobals(t)
	globals.Quiet = false

	cmd := &CaptureCmd{
		App:        "com.example.myapp",
		DryRunJSON: true,
	}
	require.NoError(t, cmd.Run(globals))

	// Dry run output must be pure JSON even when not quiet.
	var plan map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &plan))
	require.Equal(t, "simulator", plan["kind"])
	require.Equal(t, "TEST-UDID-123", plan["target"])
	require.Equal(t, "com.example.myapp", plan["app"])
	require.Equal(t, "structured", plan["mode"])
	require.Equal(t, "iPhone 17 Pro", plan["target_name"])
}

func TestCaptureConsoleExit_WithStubXcrun(t *testing.T) {
	stubCLIXcrun(t)
	globals, stdout, _ := captureTestGlobals(t)

	// No --duration: the command should return when the app quits.
	cmd := &CaptureCmd{
		App:  "com.example.myapp",
		Mode: "console",
		Show: true,
	}
	require.NoError(t, cmd.Run(globals))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	var stopped map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &stopped))
	require.Equal(t, "session_stopped", stopped["type"])
	require.Equal(t, true, stopped["process_exited"])

	content, _ := stopped["content"].(string)
	require.Contains(t, content, "MyApp console output line")
}

func TestCaptureInvalidDuration(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &CaptureCmd{App: "com.example.myapp", Duration: "bogus"}
	err := cmd.Run(globals)
	require.Error(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	require.Equal(t, "error", ev["type"])
	require.Equal(t, "INVALID_DURATION", ev["code"])
}

func TestCaptureMissingApp(t *testing.T) {
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &CaptureCmd{}
	err := cmd.Run(globals)
	require.Error(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	require.Equal(t, "INVALID_FLAGS", ev["code"])
}
