package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(buf)
	var m map[string]interface{}
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestWriteError(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	err := w.WriteError("SESSION_NOT_FOUND", "no session with id abc", "run list_captures to see active sessions")
	require.NoError(t, err)

	m := decodeLine(t, buf)
	require.Equal(t, "error", m["type"])
	require.EqualValues(t, 1, m["schemaVersion"])
	require.Equal(t, "SESSION_NOT_FOUND", m["code"])
	require.Equal(t, "no session with id abc", m["message"])
	require.Equal(t, "run list_captures to see active sessions", m["hint"])
}

func TestWriteErrorWithoutHint(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteError("SPAWN_FAILED", "xcrun not found"))

	m := decodeLine(t, buf)
	require.Equal(t, "error", m["type"])
	require.NotContains(t, m, "hint")
}

func TestWriteSessionStarted(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	ev := NewSessionStarted("sess-1", "simulator", "TEST-UDID-123", "iPhone 17 Pro", "com.example.myapp", "structured", "/tmp/xctap_capture_sess-1.log")
	require.NoError(t, w.WriteSessionStarted(ev))

	m := decodeLine(t, buf)
	require.Equal(t, "session_started", m["type"])
	require.EqualValues(t, SchemaVersion, m["schemaVersion"])
	require.Equal(t, "sess-1", m["session_id"])
	require.Equal(t, "simulator", m["kind"])
	require.Equal(t, "TEST-UDID-123", m["target"])
	require.Equal(t, "com.example.myapp", m["app"])
	require.Equal(t, "structured", m["mode"])
	require.NotEmpty(t, m["timestamp"])
}

func TestWriteSessionStoppedOmitsEmptyContent(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	ev := NewSessionStopped("sess-1", "/tmp/xctap_capture_sess-1.log", 42, false)
	require.NoError(t, w.WriteSessionStopped(ev))

	m := decodeLine(t, buf)
	require.Equal(t, "session_stopped", m["type"])
	require.EqualValues(t, 42, m["bytes"])
	require.Equal(t, false, m["process_exited"])
	require.NotContains(t, m, "content")
}

func TestWriteSweepResult(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteSweepResult(&SweepResult{
		Type:          "sweep_result",
		SchemaVersion: SchemaVersion,
		Dir:           "/tmp",
		RetentionDays: 3,
		Scanned:       5,
		Matched:       2,
		Deleted:       2,
		Timestamp:     "2026-08-25T00:00:00Z",
	}))

	m := decodeLine(t, buf)
	require.Equal(t, "sweep_result", m["type"])
	require.EqualValues(t, 3, m["retention_days"])
	require.EqualValues(t, 2, m["deleted"])
	require.EqualValues(t, 0, m["failed"])
	require.NotContains(t, m, "dry_run")
}

func TestWriterEmitsOneLinePerEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteInfo("first"))
	require.NoError(t, w.WriteInfo("second"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		require.Equal(t, "info", m["type"])
	}
}
