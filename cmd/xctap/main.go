package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/xctap/internal/cli"
	"github.com/vburojevic/xctap/internal/config"
)

const quickStart = `xctap - iOS Simulator and device log capture for AI agents

Quick start:
  xctap sims                            List simulators
  xctap apps -s "iPhone 17 Pro"         List apps
  xctap capture -a BUNDLE_ID            Capture logs until Ctrl+C
  xctap serve                           Run the MCP server on stdio

For help:
  xctap --help                          All commands and flags
  xctap help --json                     Machine-readable docs (for AI agents)
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format":    cfg.Format,
		"config_simulator": cfg.Defaults.Simulator,
		"config_app":       cfg.Defaults.App,
		"config_mode":      cfg.Capture.Mode,
	}

	ctx := kong.Parse(&c,
		kong.Name("xctap"),
		kong.Description("xctap: capture iOS Simulator and device logs for AI agents\n\nAI agents: run 'xctap help --json' for complete machine-readable documentation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Create globals with config fallbacks
	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
