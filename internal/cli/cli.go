package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vburojevic/xctap/internal/config"
)

// CLI is the root kong command tree. Global flag defaults come from
// kong vars so config file values show up in --help.
type CLI struct {
	Format  string `help:"Output format: ndjson (machine-readable), text (human-readable), auto (text on a TTY)" enum:"auto,text,ndjson" default:"${config_format}"`
	Quiet   bool   `short:"q" help:"Suppress informational output (ndjson only)"`
	Verbose bool   `short:"v" help:"Verbose debug output on stderr"`

	Serve      ServeCmd      `cmd:"" help:"Run the MCP capture server on stdio"`
	Capture    CaptureCmd    `cmd:"" help:"Capture app logs until interrupted, then print the result"`
	Sessions   SessionsCmd   `cmd:"" help:"List capture files recorded on disk"`
	Sweep      SweepCmd      `cmd:"" help:"Delete capture files past the retention window"`
	Sims       SimsCmd       `cmd:"" help:"List iOS simulators"`
	Devices    DevicesCmd    `cmd:"" help:"List physical devices"`
	Apps       AppsCmd       `cmd:"" help:"List apps installed on a simulator"`
	Browse     BrowseCmd     `cmd:"" help:"Browse capture files interactively"`
	Doctor     DoctorCmd     `cmd:"" help:"Check the capture environment"`
	Schema     SchemaCmd     `cmd:"" help:"Output JSON Schema for NDJSON output types"`
	Config     ConfigCmd     `cmd:"" help:"Manage configuration"`
	Version    VersionCmd    `cmd:"" help:"Show version information"`
	Update     UpdateCmd     `cmd:"" help:"Show how to upgrade xctap"`
	Completion CompletionCmd `cmd:"" help:"Generate shell completions"`
	Help       HelpCmd       `cmd:"" help:"Output machine-readable documentation"`
}

// Globals carries resolved global flags and the output streams commands
// write to. Tests swap Stdout/Stderr for buffers.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobalsWithConfig builds Globals from parsed flags and loaded config.
// Format "auto" resolves by TTY: text when stdout is a terminal, ndjson
// when piped, so agents get machine output without asking for it.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	if cfg == nil {
		cfg = config.Default()
	}
	format := c.Format
	if format == "" || format == "auto" {
		format = "ndjson"
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		}
	}
	return &Globals{
		Format:  format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
}

// Debug prints a diagnostic line to stderr under --verbose. Stdout stays
// clean for data output.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g == nil || !g.Verbose {
		return
	}
	fmt.Fprintf(g.Stderr, "[debug] "+format+"\n", args...)
}
