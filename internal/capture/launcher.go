package capture

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/device"
)

// Launcher spawns capture processes and wires their output straight into
// the session's log file.
type Launcher struct {
	executor command.Executor
	log      *zap.Logger
}

// NewLauncher creates a Launcher. A nil executor uses the system one.
func NewLauncher(executor command.Executor, log *zap.Logger) *Launcher {
	if executor == nil {
		executor = command.SystemExecutor{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{executor: executor, log: log}
}

// captureArgv builds the xcrun command line for a session. Structured
// capture streams the unified log filtered to the app's subsystem; console
// capture relaunches the app with its console attached, terminating any
// running instance first.
func captureArgv(target device.Target, app string, mode Mode) []string {
	if target.Kind == device.KindDevice {
		return []string{
			"xcrun", "devicectl", "device", "process", "launch",
			"--console", "--terminate-existing",
			"--device", target.UDID, app,
		}
	}
	if mode == ModeConsole {
		return []string{
			"xcrun", "simctl", "launch",
			"--console-pty", "--terminate-running-process",
			target.UDID, app,
		}
	}
	return []string{
		"xcrun", "simctl", "spawn", target.UDID,
		"log", "stream",
		"--level=debug", "--style", "compact",
		"--predicate", fmt.Sprintf("subsystem == %q", app),
	}
}

// Launch starts the capture process with stdout and stderr attached
// directly to f. No pipes and no relay goroutines: the kernel appends
// process output to the file for us. The descriptor is handed to the child
// at Start, so ours is closed immediately either way.
func (l *Launcher) Launch(sess *Session, f *os.File) error {
	argv := captureArgv(sess.Target, sess.App, sess.Mode)

	// Deliberately not CommandContext: the capture must outlive the
	// request that started it.
	cmd := l.executor.Command(argv[0], argv[1:]...)
	cmd.Stdout = f
	cmd.Stderr = f

	err := cmd.Start()
	f.Close()
	if err != nil {
		return &SpawnError{Target: sess.Target.UDID, App: sess.App, Err: err}
	}

	sess.setProc(cmd)
	l.log.Info("capture process started",
		zap.String("session_id", sess.ID),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("command", strings.Join(argv, " ")),
	)

	go l.reap(sess, cmd)
	return nil
}

// reap waits for process exit and records it on the session. Exit is
// observed, never acted on: the session stays registered until an explicit
// stop, matching how console-mode apps can quit long before anyone asks
// for their logs.
func (l *Launcher) reap(sess *Session, cmd *exec.Cmd) {
	err := cmd.Wait()
	sess.markExited(err)

	fields := []zap.Field{zap.String("session_id", sess.ID)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.log.Info("capture process exited", fields...)
}
