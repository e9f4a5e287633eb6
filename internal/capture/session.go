package capture

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vburojevic/xctap/internal/device"
)

// Mode selects what the capture process attaches to.
type Mode string

const (
	// ModeStructured streams the unified log filtered to the app's
	// subsystem, without touching the running process. Simulator only.
	ModeStructured Mode = "structured"
	// ModeConsole relaunches the app with its console attached, so plain
	// stdout/stderr prints are captured too.
	ModeConsole Mode = "console"
)

// DefaultMode is the mode used when a request does not pick one:
// structured for simulators, console for devices.
func DefaultMode(kind device.Kind) Mode {
	if kind == device.KindDevice {
		return ModeConsole
	}
	return ModeStructured
}

// ParseMode normalizes a mode string. Empty input stays empty, which lets
// the controller pick the default for the target kind. The long spellings
// are what other Xcode tooling calls these capture styles.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "structured", "structured-only":
		return ModeStructured, nil
	case "console", "console+structured":
		return ModeConsole, nil
	default:
		return "", fmt.Errorf("unknown capture mode %q (use structured or console)", s)
	}
}

// Session is one capture attached to a target. The log file outlives the
// session; the in-memory record does not survive a process restart.
type Session struct {
	ID        string
	Target    device.Target
	App       string
	Mode      Mode
	LogPath   string
	StartedAt time.Time

	mu      sync.Mutex
	proc    *exec.Cmd
	done    chan struct{}
	exited  bool
	exitErr error
}

func newSession(id string, target device.Target, app string, mode Mode, logPath string, startedAt time.Time) *Session {
	return &Session{
		ID:        id,
		Target:    target,
		App:       app,
		Mode:      mode,
		LogPath:   logPath,
		StartedAt: startedAt,
		done:      make(chan struct{}),
	}
}

// Done is closed when the capture process exits.
func (s *Session) Done() <-chan struct{} { return s.done }

// Exited reports whether the capture process has ended.
func (s *Session) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// ExitErr returns the Wait error recorded at process exit, if any.
func (s *Session) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// PID returns the capture process id, or 0 before spawn.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil || s.proc.Process == nil {
		return 0
	}
	return s.proc.Process.Pid
}

// Uptime returns how long the session has been running as of now.
func (s *Session) Uptime(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

func (s *Session) setProc(cmd *exec.Cmd) {
	s.mu.Lock()
	s.proc = cmd
	s.mu.Unlock()
}

// markExited records process exit exactly once and releases Done waiters.
func (s *Session) markExited(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return
	}
	s.exited = true
	s.exitErr = err
	close(s.done)
}

// signalStop sends SIGTERM to the capture process. Delivery is advisory:
// the signal is not awaited and a failure (usually a just-exited process)
// is returned for logging, not escalated.
func (s *Session) signalStop() error {
	s.mu.Lock()
	proc := s.proc
	exited := s.exited
	s.mu.Unlock()

	if exited || proc == nil || proc.Process == nil {
		return nil
	}
	return proc.Process.Signal(syscall.SIGTERM)
}
