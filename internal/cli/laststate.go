package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vburojevic/xctap/internal/output"
)

// lastCapture records the most recent capture started from this machine,
// so agents can find the newest log file without listing the directory.
type lastCapture struct {
	Type          string `json:"type"` // "last_capture"
	SchemaVersion int    `json:"schemaVersion"`
	SessionID     string `json:"session_id"`
	Kind          string `json:"kind"`
	Target        string `json:"target"`
	App           string `json:"app"`
	Mode          string `json:"mode"`
	LogPath       string `json:"log_path"`
	StartedAt     string `json:"started_at"`
	StoppedAt     string `json:"stopped_at,omitempty"`
	Bytes         int    `json:"bytes,omitempty"`
}

func newLastCapture(sessionID, kind, target, app, mode, logPath string, startedAt time.Time) *lastCapture {
	return &lastCapture{
		Type:          "last_capture",
		SchemaVersion: output.SchemaVersion,
		SessionID:     sessionID,
		Kind:          kind,
		Target:        target,
		App:           app,
		Mode:          mode,
		LogPath:       logPath,
		StartedAt:     startedAt.UTC().Format(time.RFC3339Nano),
	}
}

func defaultLastCapturePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".xctap")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "last.json"), nil
}

func loadLastCapture(path string) (*lastCapture, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("last capture path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var st lastCapture
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func saveLastCapture(path string, st *lastCapture) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("last capture path is required")
	}
	if st == nil {
		return errors.New("last capture state is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func parseRFC3339Any(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	// Try nano first (what we emit), fall back to second precision.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
