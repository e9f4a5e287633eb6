package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/device"
	"github.com/vburojevic/xctap/internal/output"
)

// CaptureCmd runs one capture session in the foreground: start, wait for
// Ctrl+C (or --duration, or process exit), stop, report. The log file
// stays on disk afterwards for sessions/browse.
type CaptureCmd struct {
	Simulator  string `short:"s" xor:"target" help:"Simulator name, UDID, or 'booted' (default target when no device is given)"`
	Device     string `short:"d" xor:"target" help:"Physical device name, UDID, or devicectl identifier"`
	App        string `short:"a" default:"${config_app}" help:"App bundle identifier"`
	Mode       string `short:"m" default:"${config_mode}" help:"Capture mode: structured (unified log) or console (relaunch with console attached); default picks per target"`
	Duration   string `help:"Stop automatically after this long (e.g. 45s, 10m); default runs until interrupted"`
	Show       bool   `help:"Print the captured content on stop"`
	DryRunJSON bool   `name:"dry-run-json" help:"Print the resolved capture plan as JSON and exit without capturing"`
}

// Run executes the capture command
func (c *CaptureCmd) Run(globals *Globals) error {
	if err := validateFlags(globals, c.DryRunJSON); err != nil {
		return err
	}

	app := strings.TrimSpace(c.App)
	if app == "" {
		return outputErrorCommon(globals, "INVALID_FLAGS", "app bundle identifier is required", "pass -a BUNDLE_ID or set defaults.app in config")
	}

	mode, err := capture.ParseMode(c.Mode)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_MODE", err.Error(), "use structured or console")
	}

	var duration time.Duration
	if strings.TrimSpace(c.Duration) != "" {
		duration, err = time.ParseDuration(c.Duration)
		if err != nil || duration <= 0 {
			return outputErrorCommon(globals, "INVALID_DURATION", fmt.Sprintf("invalid duration %q", c.Duration), "use a Go duration like 45s or 10m")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	log := verboseLogger(globals)
	runner := command.NewRunner(nil, log)
	mgr := device.NewManager(runner)

	simRef := strings.TrimSpace(c.Simulator)
	devRef := strings.TrimSpace(c.Device)
	if simRef == "" && devRef == "" {
		simRef = globals.Config.Defaults.Simulator
	}

	globals.Debug("Resolving capture target (simulator=%q device=%q)", simRef, devRef)
	target, err := mgr.FindTarget(ctx, simRef, devRef)
	if err != nil {
		return outputErrorCommon(globals, "DEVICE_NOT_FOUND", err.Error(), "run 'xctap sims' or 'xctap devices' to see targets")
	}
	globals.Debug("Resolved target: %s (%s)", target.Name, target.UDID)

	if c.DryRunJSON {
		return c.outputDryRun(globals, target, app, mode)
	}

	store := capture.NewFileStore(globals.Config.Capture.Dir)
	sweeper := capture.NewSweeper(store.Dir(), globals.Config.Capture.Retention(), nil, log)
	controller := capture.NewController(capture.NewRegistry(), store, sweeper, capture.NewLauncher(nil, log), nil, log)

	res, err := controller.Start(capture.StartRequest{Target: target, App: app, Mode: mode})
	if err != nil {
		return outputCaptureError(globals, err)
	}

	clog := newCaptureLogger(globals, func() string { return res.SessionID })
	clog.Debug("capture started pid=%d path=%s", res.PID, res.LogPath)

	writer := output.NewNDJSONWriter(globals.Stdout)
	if globals.Format == "ndjson" {
		writer.WriteSessionStarted(output.NewSessionStarted(
			res.SessionID, string(target.Kind), target.UDID, target.Name, app, string(res.Mode), res.LogPath))
	} else {
		fmt.Fprintf(globals.Stderr, "Capturing %s on %s (%s)\n", app, target.Name, res.Mode)
		fmt.Fprintf(globals.Stderr, "Log file: %s\n", res.LogPath)
		if duration > 0 {
			fmt.Fprintf(globals.Stderr, "Stopping after %s (Ctrl+C to stop sooner)\n", duration)
		} else {
			fmt.Fprintln(globals.Stderr, "Press Ctrl+C to stop")
		}
	}

	c.saveState(globals, res, target, app)

	sess, _ := controller.Lookup(res.SessionID)
	c.wait(ctx, globals, writer, sess, duration)

	stopRes, err := controller.Stop(res.SessionID)
	if err != nil {
		return outputCaptureError(globals, err)
	}
	clog.Debug("capture stopped bytes=%d process_exited=%v", len(stopRes.Content), stopRes.ProcessExited)

	if globals.Format == "ndjson" {
		ev := output.NewSessionStopped(stopRes.SessionID, stopRes.LogPath, len(stopRes.Content), stopRes.ProcessExited)
		if c.Show {
			ev.Content = string(stopRes.Content)
		}
		writer.WriteSessionStopped(ev)
	} else {
		if c.Show {
			fmt.Fprint(globals.Stdout, string(stopRes.Content))
		}
		fmt.Fprintf(globals.Stderr, "Captured %d bytes to %s\n", len(stopRes.Content), stopRes.LogPath)
	}

	c.updateState(globals, stopRes)
	return nil
}

// wait blocks until a signal arrives, the duration elapses, or the capture
// process exits on its own (console apps can quit early).
func (c *CaptureCmd) wait(ctx context.Context, globals *Globals, writer *output.NDJSONWriter, sess *capture.Session, duration time.Duration) {
	var timerCh <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timerCh = timer.C
	}

	var done <-chan struct{}
	if sess != nil {
		done = sess.Done()
	}

	select {
	case <-ctx.Done():
		globals.Debug("interrupted, stopping capture")
	case <-timerCh:
		globals.Debug("duration elapsed, stopping capture")
	case <-done:
		globals.Debug("capture process exited, stopping capture")
		if globals.Format == "ndjson" && !globals.Quiet {
			writer.WriteInfo("capture process exited; collecting output")
		}
	}
}

// outputDryRun prints the fully resolved capture plan without spawning.
func (c *CaptureCmd) outputDryRun(globals *Globals, target device.Target, app string, mode capture.Mode) error {
	if mode == "" {
		mode = capture.DefaultMode(target.Kind)
	}
	plan := map[string]interface{}{
		"kind":   string(target.Kind),
		"target": target.UDID,
		"app":    app,
		"mode":   string(mode),
	}
	if target.Name != "" {
		plan["target_name"] = target.Name
	}
	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(plan)
}

// saveState records the new session as the machine's last capture. Best
// effort: a failed write must not fail the capture.
func (c *CaptureCmd) saveState(globals *Globals, res capture.StartResult, target device.Target, app string) {
	path, err := defaultLastCapturePath()
	if err != nil {
		globals.Debug("last capture state unavailable: %v", err)
		return
	}
	st := newLastCapture(res.SessionID, string(target.Kind), target.UDID, app, string(res.Mode), res.LogPath, time.Now())
	if err := saveLastCapture(path, st); err != nil {
		globals.Debug("save last capture state: %v", err)
	}
}

// updateState stamps the stop onto the recorded last capture.
func (c *CaptureCmd) updateState(globals *Globals, res capture.StopResult) {
	path, err := defaultLastCapturePath()
	if err != nil {
		return
	}
	st, err := loadLastCapture(path)
	if err != nil || st == nil || st.SessionID != res.SessionID {
		return
	}
	st.StoppedAt = time.Now().UTC().Format(time.RFC3339Nano)
	st.Bytes = len(res.Content)
	if err := saveLastCapture(path, st); err != nil {
		globals.Debug("update last capture state: %v", err)
	}
}
