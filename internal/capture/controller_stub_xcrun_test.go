package capture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/xctap/internal/device"
)

// stubCaptureXcrun installs a fake xcrun ahead of the real one so capture
// sessions spawn the script instead of simctl/devicectl.
func stubCaptureXcrun(t *testing.T, script string) {
	t.Helper()
	stubDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stubDir, "xcrun"), []byte(script), 0o755))
	t.Setenv("PATH", stubDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newTestController(t *testing.T, dir string) *Controller {
	t.Helper()
	return NewController(
		NewRegistry(),
		NewFileStore(dir),
		NewSweeper(dir, DefaultRetention, nil, nil),
		NewLauncher(nil, nil),
		nil, nil,
	)
}

func simTarget() device.Target {
	return device.Target{Kind: device.KindSimulator, UDID: "TEST-UDID-123", Name: "iPhone 17 Pro"}
}

func TestControllerStartStop(t *testing.T) {
	stubCaptureXcrun(t, `#!/bin/sh
echo "[simctl stub] $@"
echo "app log line one"
exec sleep 60
`)

	dir := t.TempDir()
	c := newTestController(t, dir)

	startRes, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)
	assert.NotEmpty(t, startRes.SessionID)
	assert.Greater(t, startRes.PID, 0)
	assert.True(t, IsCaptureFile(filepath.Base(startRes.LogPath)))

	require.Len(t, c.Sessions(), 1)
	sess, ok := c.Lookup(startRes.SessionID)
	require.True(t, ok)
	assert.Equal(t, ModeStructured, sess.Mode)

	// The stub writes asynchronously; wait until its output lands.
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(startRes.LogPath)
		return err == nil && bytes.Contains(data, []byte("app log line one"))
	}, 5*time.Second, 10*time.Millisecond)

	stopRes, err := c.Stop(startRes.SessionID)
	require.NoError(t, err)
	assert.Equal(t, startRes.SessionID, stopRes.SessionID)
	assert.False(t, stopRes.ProcessExited)
	assert.Contains(t, string(stopRes.Content), "# xctap capture session="+startRes.SessionID)
	assert.Contains(t, string(stopRes.Content), "app=com.example.myapp")
	assert.Contains(t, string(stopRes.Content), "target=TEST-UDID-123")
	assert.Contains(t, string(stopRes.Content), "app log line one")
	assert.Contains(t, string(stopRes.Content), "spawn TEST-UDID-123 log stream")

	assert.Empty(t, c.Sessions())

	// The log file itself stays until retention collects it.
	assert.FileExists(t, startRes.LogPath)
}

func TestControllerStopUnknownSession(t *testing.T) {
	c := newTestController(t, t.TempDir())

	_, err := c.Stop("no-such-session")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, "SESSION_NOT_FOUND", Code(err))
}

func TestControllerRejectsStructuredOnDevice(t *testing.T) {
	c := newTestController(t, t.TempDir())

	_, err := c.Start(StartRequest{
		Target: device.Target{Kind: device.KindDevice, UDID: "00008120-001234567890ABCD"},
		App:    "com.example.myapp",
		Mode:   ModeStructured,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, "INVALID_MODE", Code(err))
}

func TestControllerDefaultsModePerTargetKind(t *testing.T) {
	stubCaptureXcrun(t, "#!/bin/sh\nexec sleep 60\n")
	c := newTestController(t, t.TempDir())

	simRes, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)
	assert.Equal(t, ModeStructured, simRes.Mode)
	simSess, ok := c.Lookup(simRes.SessionID)
	require.True(t, ok)
	assert.Equal(t, ModeStructured, simSess.Mode)

	devRes, err := c.Start(StartRequest{
		Target: device.Target{Kind: device.KindDevice, UDID: "00008120-001234567890ABCD"},
		App:    "com.example.myapp",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeConsole, devRes.Mode)
	devSess, ok := c.Lookup(devRes.SessionID)
	require.True(t, ok)
	assert.Equal(t, ModeConsole, devSess.Mode)

	_, err = c.Stop(simRes.SessionID)
	require.NoError(t, err)
	_, err = c.Stop(devRes.SessionID)
	require.NoError(t, err)
}

func TestControllerDuplicateTargetStarts(t *testing.T) {
	stubCaptureXcrun(t, "#!/bin/sh\nexec sleep 60\n")

	c := newTestController(t, t.TempDir())
	first, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)
	second, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)

	// Same target and app is not a conflict: each start is its own session
	// with its own process and file.
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.LogPath, second.LogPath)
	assert.Len(t, c.Sessions(), 2)

	_, err = c.Stop(first.SessionID)
	require.NoError(t, err)
	_, err = c.Stop(second.SessionID)
	require.NoError(t, err)
}

func TestControllerFileCreateFailure(t *testing.T) {
	// A plain file where the capture directory should be makes create fail
	// regardless of who runs the tests.
	dirAsFile := filepath.Join(t.TempDir(), "captures")
	require.NoError(t, os.WriteFile(dirAsFile, []byte("not a directory"), 0o644))

	c := newTestController(t, dirAsFile)
	_, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.Error(t, err)

	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "LOG_FILE_FAILED", Code(err))
	assert.Empty(t, c.Sessions())
}

func TestControllerValidatesRequest(t *testing.T) {
	c := newTestController(t, t.TempDir())

	_, err := c.Start(StartRequest{Target: simTarget()})
	assert.ErrorContains(t, err, "app bundle identifier is required")

	_, err = c.Start(StartRequest{App: "com.example.myapp"})
	assert.ErrorContains(t, err, "capture target is required")
}

func TestControllerSweepsBeforeStart(t *testing.T) {
	stubCaptureXcrun(t, "#!/bin/sh\nexec sleep 60\n")

	dir := t.TempDir()
	stale := filepath.Join(dir, FilePrefix+"stale"+FileExt)
	require.NoError(t, os.WriteFile(stale, []byte("old capture\n"), 0o644))
	aged := time.Now().Add(-DefaultRetention - time.Hour)
	require.NoError(t, os.Chtimes(stale, aged, aged))

	c := newTestController(t, dir)
	res, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)
	defer c.Stop(res.SessionID)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, res.LogPath)
}

func TestControllerStopAfterProcessExit(t *testing.T) {
	stubCaptureXcrun(t, `#!/bin/sh
echo "short lived"
exit 0
`)

	c := newTestController(t, t.TempDir())
	startRes, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)

	sess, ok := c.Lookup(startRes.SessionID)
	require.True(t, ok)
	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("capture process did not exit")
	}

	// An exited process does not end the session: it stays listed until
	// stopped, and the captured output stays readable.
	require.Len(t, c.Sessions(), 1)

	stopRes, err := c.Stop(startRes.SessionID)
	require.NoError(t, err)
	assert.True(t, stopRes.ProcessExited)
	assert.Contains(t, string(stopRes.Content), "short lived")
}

func TestControllerStopIsTerminal(t *testing.T) {
	stubCaptureXcrun(t, "#!/bin/sh\nexec sleep 60\n")

	c := newTestController(t, t.TempDir())
	startRes, err := c.Start(StartRequest{Target: simTarget(), App: "com.example.myapp"})
	require.NoError(t, err)

	_, err = c.Stop(startRes.SessionID)
	require.NoError(t, err)

	_, err = c.Stop(startRes.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
