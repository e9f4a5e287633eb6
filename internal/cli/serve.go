package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vburojevic/xctap/internal/agent"
	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/device"
)

// ServeCmd runs the MCP capture server on stdio. Sessions live in the
// server process; an agent can start a capture, do other work, and collect
// the output from the same server minutes later.
type ServeCmd struct{}

// Run executes the serve command
func (c *ServeCmd) Run(globals *Globals) error {
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

	store := capture.NewFileStore(globals.Config.Capture.Dir)
	sweeper := capture.NewSweeper(store.Dir(), globals.Config.Capture.Retention(), nil, log)
	controller := capture.NewController(capture.NewRegistry(), store, sweeper, capture.NewLauncher(nil, log), nil, log)

	srv := agent.NewServer(controller, mgr, Version, log)
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
