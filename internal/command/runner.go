package command

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one-shot invocations so a wedged xcrun cannot hang
// a listing command forever.
const DefaultTimeout = 60 * time.Second

// Result is the outcome of a one-shot command invocation.
type Result struct {
	Success bool
	Output  string
	Err     string
}

// Runner executes one-shot commands and captures their combined output.
// Capture processes are long-lived and owned by the capture launcher; they
// do not go through here.
type Runner struct {
	executor Executor
	log      *zap.Logger
	timeout  time.Duration
}

// NewRunner creates a Runner with the default timeout.
func NewRunner(executor Executor, log *zap.Logger) *Runner {
	if executor == nil {
		executor = SystemExecutor{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{executor: executor, log: log, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of the Runner using the given timeout.
func (r *Runner) WithTimeout(timeout time.Duration) *Runner {
	c := *r
	if timeout > 0 {
		c.timeout = timeout
	}
	return &c
}

// Run invokes argv[0] with the remaining arguments and waits for completion.
// The description names the operation in debug logs only.
func (r *Runner) Run(ctx context.Context, description string, argv ...string) Result {
	if len(argv) == 0 {
		return Result{Err: "empty command"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := r.executor.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()

	res := Result{
		Success: err == nil,
		Output:  string(out),
	}
	if err != nil {
		res.Err = err.Error()
	}

	r.log.Debug("command finished",
		zap.String("description", description),
		zap.String("command", strings.Join(argv, " ")),
		zap.Bool("success", res.Success),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}
