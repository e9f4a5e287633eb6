package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vburojevic/xctap/internal/config"
	"github.com/vburojevic/xctap/internal/output"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show config file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate a sample config file"`
}

// ConfigShowCmd shows the current configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	captureDir := cfg.Capture.Dir
	if captureDir == "" {
		captureDir = os.TempDir()
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config",
			"schemaVersion": output.SchemaVersion,
			"format":        cfg.Format,
			"quiet":         cfg.Quiet,
			"verbose":       cfg.Verbose,
			"capture": map[string]interface{}{
				"dir":            captureDir,
				"mode":           cfg.Capture.Mode,
				"retention_days": cfg.Capture.RetentionDays,
			},
			"defaults": map[string]interface{}{
				"simulator": cfg.Defaults.Simulator,
				"app":       cfg.Defaults.App,
			},
		}
		encoder := json.NewEncoder(globals.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	mode := cfg.Capture.Mode
	if mode == "" {
		mode = "(structured on simulators, console on devices)"
	}
	app := cfg.Defaults.App
	if app == "" {
		app = "(none)"
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet: %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Capture:")
	fmt.Fprintf(globals.Stdout, "    dir: %s\n", captureDir)
	fmt.Fprintf(globals.Stdout, "    mode: %s\n", mode)
	fmt.Fprintf(globals.Stdout, "    retention_days: %d\n", cfg.Capture.RetentionDays)
	fmt.Fprintln(globals.Stdout, "  Defaults:")
	fmt.Fprintf(globals.Stdout, "    simulator: %s\n", cfg.Defaults.Simulator)
	fmt.Fprintf(globals.Stdout, "    app: %s\n", app)
	return nil
}

// ConfigPathCmd shows the config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
			"found":         path != "",
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "Searched: ./.xctap.yaml, ~/.xctap.yaml, ~/.config/xctap/xctap.yaml, /etc/xctap/xctap.yaml")
		fmt.Fprintln(globals.Stdout, "Run 'xctap config generate > ~/.xctap.yaml' to create one")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd prints a sample config file
type ConfigGenerateCmd struct{}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	sample := `# xctap configuration file
# Place at ~/.xctap.yaml, ./.xctap.yaml, or ~/.config/xctap/xctap.yaml
# Every key can also be set with an XCTAP_* environment variable.

# Output format: ndjson (machine-readable), text (human-readable), auto
format: ndjson

# Suppress non-essential output (info events)
quiet: false

# Log internal operations to stderr
verbose: false

capture:
  # Directory for capture files. Defaults to the system temp directory.
  # dir: /tmp/xctap

  # Default capture mode: structured or console.
  # Unset picks structured for simulators and console for devices.
  # mode: structured

  # Capture files older than this are deleted before each new session.
  retention_days: 3

defaults:
  # Default capture target when no --simulator or --device is given.
  # "booted" means the currently booted simulator.
  simulator: booted

  # Default app bundle ID for capture.
  # app: com.example.myapp
`
	fmt.Fprint(globals.Stdout, sample)
	return nil
}
