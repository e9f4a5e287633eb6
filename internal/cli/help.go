package cli

import (
	"encoding/json"
	"fmt"
)

// HelpCmd outputs complete machine-readable documentation for AI agents
type HelpCmd struct {
	JSON bool `help:"Output documentation as JSON"`
}

type helpDoc struct {
	Tool        string       `json:"tool"`
	Description string       `json:"description"`
	Usage       string       `json:"usage"`
	Commands    []commandDoc `json:"commands"`
	GlobalFlags []flagDoc    `json:"global_flags"`
	Events      []eventDoc   `json:"events"`
	ErrorCodes  []string     `json:"error_codes"`
	Examples    []exampleDoc `json:"examples"`
}

type commandDoc struct {
	Name    string    `json:"name"`
	Summary string    `json:"summary"`
	Flags   []flagDoc `json:"flags,omitempty"`
}

type flagDoc struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Help    string `json:"help"`
}

type eventDoc struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

type exampleDoc struct {
	Description string `json:"description"`
	Command     string `json:"command"`
}

// Run executes the help command
func (c *HelpCmd) Run(globals *Globals) error {
	if !c.JSON {
		fmt.Fprintln(globals.Stdout, "Run 'xctap --help' for usage.")
		fmt.Fprintln(globals.Stdout, "Run 'xctap help --json' for complete machine-readable documentation.")
		fmt.Fprintln(globals.Stdout, "Run 'xctap schema' for JSON Schema of all NDJSON output types.")
		return nil
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildHelpDoc())
}

// buildHelpDoc assembles the documentation tree. Kept in sync with the
// kong command tree by TestHelpJsonSynced.
func buildHelpDoc() helpDoc {
	return helpDoc{
		Tool:        "xctap",
		Description: "Capture iOS Simulator and device logs for AI agents",
		Usage:       "xctap <command> [flags]",
		Commands: []commandDoc{
			{
				Name:    "serve",
				Summary: "Run the MCP capture server on stdio",
			},
			{
				Name:    "capture",
				Summary: "Capture app logs until interrupted, then print the result",
				Flags: []flagDoc{
					{Name: "-s, --simulator", Type: "string", Help: "Simulator name, UDID, or 'booted' (default target when no device is given)"},
					{Name: "-d, --device", Type: "string", Help: "Physical device name, UDID, or devicectl identifier"},
					{Name: "-a, --app", Type: "string", Help: "App bundle identifier"},
					{Name: "-m, --mode", Type: "string", Help: "Capture mode: structured (unified log) or console (relaunch with console attached); default picks per target"},
					{Name: "--duration", Type: "string", Help: "Stop automatically after this long (e.g. 45s, 10m); default runs until interrupted"},
					{Name: "--show", Type: "bool", Help: "Print the captured content on stop"},
					{Name: "--dry-run-json", Type: "bool", Help: "Print the resolved capture plan as JSON and exit without capturing"},
				},
			},
			{
				Name:    "sessions",
				Summary: "List capture files recorded on disk",
				Flags: []flagDoc{
					{Name: "-p, --pattern", Type: "string", Help: "Regex on capture file names"},
					{Name: "-x, --exclude", Type: "strings", Help: "Regex to exclude capture file names (repeatable)"},
					{Name: "-w, --where", Type: "strings", Help: "Header field filter: field=value, field~regex, age>=2h (repeatable, AND)"},
					{Name: "--last", Type: "bool", Help: "Show only the most recent capture started from this machine"},
				},
			},
			{
				Name:    "sweep",
				Summary: "Delete capture files past the retention window",
				Flags: []flagDoc{
					{Name: "--dry-run", Type: "bool", Help: "Report stale files without deleting them"},
					{Name: "--retention", Type: "string", Help: "Override the retention window (e.g. 24h, 72h)"},
				},
			},
			{
				Name:    "sims",
				Summary: "List iOS simulators",
				Flags: []flagDoc{
					{Name: "--booted", Type: "bool", Help: "Only booted simulators"},
				},
			},
			{
				Name:    "devices",
				Summary: "List physical devices",
			},
			{
				Name:    "apps",
				Summary: "List apps installed on a simulator",
				Flags: []flagDoc{
					{Name: "-s, --simulator", Type: "string", Default: "booted", Help: "Simulator name, UDID, or 'booted'"},
					{Name: "--system", Type: "bool", Help: "Include system apps"},
				},
			},
			{
				Name:    "browse",
				Summary: "Browse capture files interactively",
			},
			{
				Name:    "doctor",
				Summary: "Check the capture environment",
			},
			{
				Name:    "schema",
				Summary: "Output JSON Schema for NDJSON output types",
				Flags: []flagDoc{
					{Name: "-t, --type", Type: "strings", Help: "Output types to include (session_started,session_stopped,capture_file,sweep_result,simulator,device,app,doctor,error,info). Default: all"},
				},
			},
			{
				Name:    "config",
				Summary: "Manage configuration (show, path, generate)",
			},
			{
				Name:    "version",
				Summary: "Show version information",
			},
			{
				Name:    "update",
				Summary: "Show how to upgrade xctap",
			},
			{
				Name:    "completion",
				Summary: "Generate shell completions (bash, zsh, fish)",
			},
			{
				Name:    "help",
				Summary: "Output machine-readable documentation",
				Flags: []flagDoc{
					{Name: "--json", Type: "bool", Help: "Output documentation as JSON"},
				},
			},
		},
		GlobalFlags: []flagDoc{
			{Name: "--format", Type: "string", Default: "ndjson", Help: "Output format: ndjson (machine-readable), text (human-readable), auto (text on a TTY)"},
			{Name: "-q, --quiet", Type: "bool", Help: "Suppress informational output (ndjson only)"},
			{Name: "-v, --verbose", Type: "bool", Help: "Verbose debug output on stderr"},
		},
		Events: []eventDoc{
			{Type: "session_started", Summary: "Emitted when a capture session begins"},
			{Type: "session_stopped", Summary: "Emitted when a capture session is stopped and its log file read back"},
			{Type: "capture_file", Summary: "One capture file found in the capture directory"},
			{Type: "sweep_result", Summary: "Summary of one retention sweep over the capture directory"},
			{Type: "simulator", Summary: "One iOS Simulator known to simctl"},
			{Type: "device", Summary: "One physical device known to devicectl"},
			{Type: "app", Summary: "One app installed on a simulator"},
			{Type: "doctor", Summary: "Environment check results"},
			{Type: "error", Summary: "Machine-readable failure from xctap"},
			{Type: "info", Summary: "Informational notice, suppressed by --quiet"},
		},
		ErrorCodes: []string{
			"DEVICE_NOT_FOUND",
			"INVALID_MODE",
			"INVALID_FLAGS",
			"INVALID_PATTERN",
			"INVALID_EXCLUDE_PATTERN",
			"INVALID_WHERE",
			"INVALID_DURATION",
			"INVALID_RETENTION",
			"SESSION_NOT_FOUND",
			"SPAWN_FAILED",
			"LOG_FILE_FAILED",
			"CAPTURE_FAILED",
			"LIST_FAILED",
		},
		Examples: []exampleDoc{
			{Description: "Capture logs from the booted simulator", Command: "xctap capture -a com.example.myapp"},
			{Description: "Capture for 45 seconds and print the captured content", Command: "xctap capture -a com.example.myapp --duration 45s --show"},
			{Description: "Capture from a physical device with console output", Command: "xctap capture -d 'My iPhone' -a com.example.myapp"},
			{Description: "List capture files from the last day", Command: "xctap sessions -w 'age<=24h'"},
			{Description: "Delete capture files past the retention window", Command: "xctap sweep"},
			{Description: "Run the MCP server for an AI agent", Command: "xctap serve"},
			{Description: "Check that simctl and devicectl are usable", Command: "xctap doctor"},
		},
	}
}
