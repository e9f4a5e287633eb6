package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vburojevic/xctap/internal/device"
)

// Controller drives the session lifecycle end to end: sweep, file, spawn
// and register on start; signal, read and deregister on stop. One
// controller serves both simulator and device targets.
type Controller struct {
	registry *Registry
	store    *FileStore
	sweeper  *Sweeper
	launcher *Launcher
	clock    clock.Clock
	log      *zap.Logger
}

// NewController wires the capture subsystem together. The registry is
// injected rather than owned, so an embedder controls which sessions are
// visible to which controller.
func NewController(registry *Registry, store *FileStore, sweeper *Sweeper, launcher *Launcher, clk clock.Clock, log *zap.Logger) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		registry: registry,
		store:    store,
		sweeper:  sweeper,
		launcher: launcher,
		clock:    clk,
		log:      log,
	}
}

// StartRequest describes a capture to begin. An empty Mode picks the
// target's default: structured for simulators, console for devices.
type StartRequest struct {
	Target device.Target
	App    string
	Mode   Mode
}

// StartResult identifies a running capture. Mode is the resolved mode, so
// callers see what a defaulted request ended up with.
type StartResult struct {
	SessionID string
	LogPath   string
	PID       int
	Mode      Mode
}

// StopResult carries everything a stopped session captured.
type StopResult struct {
	SessionID string
	LogPath   string
	Content   []byte
	// ProcessExited is true when the capture process had already ended
	// before stop was called.
	ProcessExited bool
}

// Start begins a capture session and returns its id. The log file is
// created and the process spawned before the session becomes visible; a
// spawn failure leaves the file behind for retention to collect.
func (c *Controller) Start(req StartRequest) (StartResult, error) {
	if strings.TrimSpace(req.App) == "" {
		return StartResult{}, errors.New("app bundle identifier is required")
	}
	if req.Target.UDID == "" {
		return StartResult{}, errors.New("capture target is required")
	}

	mode := req.Mode
	if mode == "" {
		mode = DefaultMode(req.Target.Kind)
	}
	if req.Target.Kind == device.KindDevice && mode == ModeStructured {
		return StartResult{}, ErrInvalidMode
	}

	// Retention rides on every start. Best effort only; Sweep cannot fail
	// the capture.
	c.sweeper.Sweep()

	id := uuid.NewString()
	now := c.clock.Now()
	f, path, err := c.store.Create(Header{
		SessionID: id,
		Kind:      string(req.Target.Kind),
		Target:    req.Target.UDID,
		App:       req.App,
		Mode:      string(mode),
		StartedAt: now,
	})
	if err != nil {
		return StartResult{}, err
	}

	sess := newSession(id, req.Target, req.App, mode, path, now)
	if err := c.launcher.Launch(sess, f); err != nil {
		return StartResult{}, err
	}

	if err := c.registry.Insert(sess); err != nil {
		// Should be unreachable with UUID ids; kill the orphan process
		// rather than leaking it.
		if sigErr := sess.signalStop(); sigErr != nil {
			c.log.Debug("terminate unregistered capture process", zap.Error(sigErr))
		}
		return StartResult{}, fmt.Errorf("register session: %w", err)
	}

	c.log.Info("capture session started",
		zap.String("session_id", id),
		zap.String("kind", string(req.Target.Kind)),
		zap.String("target", req.Target.UDID),
		zap.String("app", req.App),
		zap.String("mode", string(mode)),
		zap.String("log_path", path),
	)
	return StartResult{SessionID: id, LogPath: path, PID: sess.PID(), Mode: mode}, nil
}

// Stop ends a capture session and returns the full captured content. The
// termination signal is advisory; the file is read right after signalling,
// not after the process is gone, so a capture that ignores SIGTERM still
// returns its output. The session leaves the registry even when the final
// read fails.
func (c *Controller) Stop(sessionID string) (StopResult, error) {
	sess, ok := c.registry.Remove(sessionID)
	if !ok {
		return StopResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	exited := sess.Exited()
	if !exited {
		if err := sess.signalStop(); err != nil {
			// The process can exit between the check and the signal; the
			// file holds whatever was captured either way.
			c.log.Debug("terminate capture process",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	res := StopResult{SessionID: sessionID, LogPath: sess.LogPath, ProcessExited: exited}
	content, err := c.store.ReadAll(sess.LogPath)
	if err != nil {
		return res, err
	}
	res.Content = content

	c.log.Info("capture session stopped",
		zap.String("session_id", sessionID),
		zap.Int("bytes", len(content)),
		zap.Bool("process_exited", exited),
	)
	return res, nil
}

// Sessions returns live sessions ordered by start time.
func (c *Controller) Sessions() []*Session {
	return c.registry.Active()
}

// Lookup returns a live session by id.
func (c *Controller) Lookup(sessionID string) (*Session, bool) {
	return c.registry.Lookup(sessionID)
}

// Clock returns the controller's clock, so callers report uptimes on the
// same clock the controller stamps sessions with.
func (c *Controller) Clock() clock.Clock {
	return c.clock
}
