package output

import (
	"encoding/json"
	"io"
	"sync"
)

// SchemaVersion is bumped when the NDJSON event contract changes shape.
const SchemaVersion = 1

// NDJSONWriter writes one JSON event per line. Safe for concurrent use so
// reaper goroutines can emit alongside the command loop.
type NDJSONWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewNDJSONWriter creates a writer that emits NDJSON to w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{encoder: json.NewEncoder(w)}
}

// Write encodes any event as a single NDJSON line.
func (w *NDJSONWriter) Write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(v)
}

// WriteError emits a machine-readable error event. The optional hint tells
// agents how to recover.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	ev := &Error{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		ev.Hint = hint[0]
	}
	return w.Write(ev)
}

// WriteInfo emits an informational notice.
func (w *NDJSONWriter) WriteInfo(message string) error {
	return w.Write(&Info{Type: "info", SchemaVersion: SchemaVersion, Message: message})
}

// WriteSessionStarted emits a session_started event.
func (w *NDJSONWriter) WriteSessionStarted(ev *SessionStarted) error {
	return w.Write(ev)
}

// WriteSessionStopped emits a session_stopped event.
func (w *NDJSONWriter) WriteSessionStopped(ev *SessionStopped) error {
	return w.Write(ev)
}

// WriteCaptureFile emits a capture_file event.
func (w *NDJSONWriter) WriteCaptureFile(ev *CaptureFile) error {
	return w.Write(ev)
}

// WriteSweepResult emits a sweep_result event.
func (w *NDJSONWriter) WriteSweepResult(ev *SweepResult) error {
	return w.Write(ev)
}
