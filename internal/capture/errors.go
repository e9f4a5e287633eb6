package capture

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by Stop when the id is not registered:
// unknown, already stopped, or minted by a previous process.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidMode is returned when the requested mode cannot run on the
// target kind. Physical devices only support console capture.
var ErrInvalidMode = errors.New("structured capture requires a simulator target")

// SpawnError wraps a failure to start the capture process.
type SpawnError struct {
	Target string
	App    string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn capture for %s on %s: %v", e.App, e.Target, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// FileError wraps a capture file create or read failure.
type FileError struct {
	Op   string // "create" or "read"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s capture file %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Code maps a capture error to the stable code agents branch on.
func Code(err error) string {
	var spawnErr *SpawnError
	var fileErr *FileError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, ErrInvalidMode):
		return "INVALID_MODE"
	case errors.As(err, &spawnErr):
		return "SPAWN_FAILED"
	case errors.As(err, &fileErr):
		return "LOG_FILE_FAILED"
	default:
		return "CAPTURE_FAILED"
	}
}
