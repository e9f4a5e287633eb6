package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Injecting it lets tests point
// commands at stub binaries (via PATH) or fake the construction entirely,
// without touching production call sites.
type Executor interface {
	// Command creates an exec.Cmd that outlives any calling context.
	// Long-running capture processes use this so they are not killed when
	// the request that started them returns.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a context-aware exec.Cmd for one-shot
	// invocations.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// SystemExecutor is the production Executor backed by os/exec.
type SystemExecutor struct{}

// Command creates a standard exec.Cmd.
func (SystemExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (SystemExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
