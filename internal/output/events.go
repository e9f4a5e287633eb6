package output

import "time"

// SessionStarted is emitted when a capture session begins.
type SessionStarted struct {
	Type          string `json:"type"`          // "session_started"
	SchemaVersion int    `json:"schemaVersion"` // 1
	SessionID     string `json:"session_id"`    // Opaque session token
	Kind          string `json:"kind"`          // "simulator" or "device"
	Target        string `json:"target"`        // Target UDID
	TargetName    string `json:"target_name,omitempty"`
	App           string `json:"app"`  // Bundle identifier
	Mode          string `json:"mode"` // "structured" or "console"
	LogPath       string `json:"log_path"`
	Timestamp     string `json:"timestamp"` // ISO8601 timestamp
}

// SessionStopped is emitted when a capture session is stopped and its
// log file has been read back.
type SessionStopped struct {
	Type          string `json:"type"`          // "session_stopped"
	SchemaVersion int    `json:"schemaVersion"` // 1
	SessionID     string `json:"session_id"`
	LogPath       string `json:"log_path"`
	Bytes         int    `json:"bytes"`
	ProcessExited bool   `json:"process_exited"` // True when the capture process ended before stop
	Content       string `json:"content,omitempty"`
}

// CaptureFile describes one capture file found in the capture directory.
type CaptureFile struct {
	Type          string `json:"type"`          // "capture_file"
	SchemaVersion int    `json:"schemaVersion"` // 1
	Path          string `json:"path"`
	SizeBytes     int64  `json:"size_bytes"`
	ModifiedAt    string `json:"modified_at"`
	AgeSeconds    int64  `json:"age_seconds"`
	SessionID     string `json:"session_id,omitempty"` // From the file header, when present
	Kind          string `json:"kind,omitempty"`
	Target        string `json:"target,omitempty"`
	App           string `json:"app,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

// SweepResult summarizes one retention sweep over the capture directory.
type SweepResult struct {
	Type          string `json:"type"`          // "sweep_result"
	SchemaVersion int    `json:"schemaVersion"` // 1
	Dir           string `json:"dir"`
	RetentionDays int    `json:"retention_days"`
	Scanned       int    `json:"scanned"`
	Matched       int    `json:"matched"`
	Deleted       int    `json:"deleted"`
	Failed        int    `json:"failed"`
	FreedBytes    int64  `json:"freed_bytes"`
	DryRun        bool   `json:"dry_run,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Simulator describes one iOS Simulator known to simctl.
type Simulator struct {
	Type          string `json:"type"`          // "simulator"
	SchemaVersion int    `json:"schemaVersion"` // 1
	UDID          string `json:"udid"`
	Name          string `json:"name"`
	State         string `json:"state"` // Booted, Shutdown, ...
	Runtime       string `json:"runtime"`
	Available     bool   `json:"available"`
}

// Device describes one physical device known to devicectl.
type Device struct {
	Type          string `json:"type"`          // "device"
	SchemaVersion int    `json:"schemaVersion"` // 1
	UDID          string `json:"udid"`
	Name          string `json:"name"`
	Platform      string `json:"platform,omitempty"`
	OSVersion     string `json:"os_version,omitempty"`
	Transport     string `json:"transport,omitempty"`
}

// App describes one app installed on a simulator.
type App struct {
	Type          string `json:"type"`          // "app"
	SchemaVersion int    `json:"schemaVersion"` // 1
	BundleID      string `json:"bundle_id"`
	Name          string `json:"name"`
	Version       string `json:"version,omitempty"`
	Build         string `json:"build,omitempty"`
	AppType       string `json:"app_type,omitempty"` // "user" or "system"
	Path          string `json:"path,omitempty"`
}

// Error is a machine-readable failure emitted on stdout for agents.
type Error struct {
	Type          string `json:"type"`          // "error"
	SchemaVersion int    `json:"schemaVersion"` // 1
	Code          string `json:"code"`          // e.g. SESSION_NOT_FOUND, SPAWN_FAILED
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// Info is a low-severity notice that is not part of any command's data output.
type Info struct {
	Type          string `json:"type"`          // "info"
	SchemaVersion int    `json:"schemaVersion"` // 1
	Message       string `json:"message"`
}

// NewSessionStarted creates a SessionStarted event stamped with the current time.
func NewSessionStarted(sessionID, kind, target, targetName, app, mode, logPath string) *SessionStarted {
	return &SessionStarted{
		Type:          "session_started",
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Kind:          kind,
		Target:        target,
		TargetName:    targetName,
		App:           app,
		Mode:          mode,
		LogPath:       logPath,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

// NewSessionStopped creates a SessionStopped event.
func NewSessionStopped(sessionID, logPath string, bytes int, processExited bool) *SessionStopped {
	return &SessionStopped{
		Type:          "session_stopped",
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		LogPath:       logPath,
		Bytes:         bytes,
		ProcessExited: processExited,
	}
}
