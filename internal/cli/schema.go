package cli

import (
	"encoding/json"
	"strings"
)

// SchemaCmd outputs JSON Schema for xctap output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (session_started,session_stopped,capture_file,sweep_result,simulator,device,app,doctor,error,info). Default: all"`
}

// schemaOrder keeps definitions in a stable order for --type filtering.
var schemaOrder = []string{
	"session_started",
	"session_stopped",
	"capture_file",
	"sweep_result",
	"simulator",
	"device",
	"app",
	"doctor",
	"error",
	"info",
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]interface{}{
		"session_started": sessionStartedSchema(),
		"session_stopped": sessionStoppedSchema(),
		"capture_file":    captureFileSchema(),
		"sweep_result":    sweepResultSchema(),
		"simulator":       simulatorSchema(),
		"device":          deviceSchema(),
		"app":             appSchema(),
		"doctor":          doctorSchema(),
		"error":           errorSchema(),
		"info":            infoSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaOrder
	}

	out := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "xctap Output Schemas",
		"description": "JSON Schema definitions for all xctap NDJSON output types",
		"definitions": map[string]interface{}{},
	}

	defs := out["definitions"].(map[string]interface{})
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func sessionStartedSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Session Started",
		"description": "Emitted when a capture session begins",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "session_started",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Opaque session token; pass it to stop_capture",
			},
			"kind": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"simulator", "device"},
				"description": "Capture target family",
			},
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Target UDID",
			},
			"target_name": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable target name",
			},
			"app": map[string]interface{}{
				"type":        "string",
				"description": "App bundle identifier",
			},
			"mode": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"structured", "console"},
				"description": "Resolved capture mode",
			},
			"log_path": map[string]interface{}{
				"type":        "string",
				"description": "Capture file on disk",
			},
			"timestamp": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "ISO8601 session start time",
			},
		},
		"required": []string{"type", "schemaVersion", "session_id", "kind", "target", "app", "mode", "log_path", "timestamp"},
	}
}

func sessionStoppedSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Session Stopped",
		"description": "Emitted when a capture session is stopped and its log file read back",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "session_stopped",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session token of the stopped capture",
			},
			"log_path": map[string]interface{}{
				"type":        "string",
				"description": "Capture file on disk; it stays until the retention sweep",
			},
			"bytes": map[string]interface{}{
				"type":        "integer",
				"description": "Captured size in bytes, header line included",
			},
			"process_exited": map[string]interface{}{
				"type":        "boolean",
				"description": "True when the capture process ended before stop was requested",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Full captured content (only with --show)",
			},
		},
		"required": []string{"type", "schemaVersion", "session_id", "log_path", "bytes", "process_exited"},
	}
}

func captureFileSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Capture File",
		"description": "One capture file found in the capture directory",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "capture_file",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Absolute file path",
			},
			"size_bytes": map[string]interface{}{
				"type":        "integer",
				"description": "File size in bytes",
			},
			"modified_at": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "Last modification time",
			},
			"age_seconds": map[string]interface{}{
				"type":        "integer",
				"description": "Seconds since last modification",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session token from the file header; absent for orphaned files",
			},
			"kind": map[string]interface{}{
				"type":        "string",
				"description": "Capture target family from the header",
			},
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Target UDID from the header",
			},
			"app": map[string]interface{}{
				"type":        "string",
				"description": "App bundle identifier from the header",
			},
			"mode": map[string]interface{}{
				"type":        "string",
				"description": "Capture mode from the header",
			},
		},
		"required": []string{"type", "schemaVersion", "path", "size_bytes", "modified_at", "age_seconds"},
	}
}

func sweepResultSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Sweep Result",
		"description": "Summary of one retention sweep over the capture directory",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "sweep_result",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"dir": map[string]interface{}{
				"type":        "string",
				"description": "Swept directory",
			},
			"retention_days": map[string]interface{}{
				"type":        "integer",
				"description": "Retention window in whole days",
			},
			"scanned": map[string]interface{}{
				"type":        "integer",
				"description": "Capture files examined",
			},
			"matched": map[string]interface{}{
				"type":        "integer",
				"description": "Files past the retention window",
			},
			"deleted": map[string]interface{}{
				"type":        "integer",
				"description": "Files deleted",
			},
			"failed": map[string]interface{}{
				"type":        "integer",
				"description": "Files that could not be deleted",
			},
			"freed_bytes": map[string]interface{}{
				"type":        "integer",
				"description": "Bytes freed by deletions",
			},
			"dry_run": map[string]interface{}{
				"type":        "boolean",
				"description": "True when no files were actually deleted",
			},
			"timestamp": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "ISO8601 sweep time",
			},
		},
		"required": []string{"type", "schemaVersion", "dir", "retention_days", "scanned", "matched", "deleted", "failed", "freed_bytes", "timestamp"},
	}
}

func simulatorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Simulator",
		"description": "One iOS Simulator known to simctl",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "simulator",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"udid": map[string]interface{}{
				"type":        "string",
				"description": "Simulator UDID",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Simulator name",
			},
			"state": map[string]interface{}{
				"type":        "string",
				"description": "Booted, Shutdown, ...",
			},
			"runtime": map[string]interface{}{
				"type":        "string",
				"description": "OS runtime, e.g. iOS 17.0",
			},
			"available": map[string]interface{}{
				"type":        "boolean",
				"description": "False when the runtime is missing",
			},
		},
		"required": []string{"type", "schemaVersion", "udid", "name", "state", "runtime", "available"},
	}
}

func deviceSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Device",
		"description": "One physical device known to devicectl",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "device",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"udid": map[string]interface{}{
				"type":        "string",
				"description": "Device identifier accepted by --device",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Device name",
			},
			"platform": map[string]interface{}{
				"type":        "string",
				"description": "Hardware platform",
			},
			"os_version": map[string]interface{}{
				"type":        "string",
				"description": "Installed OS version",
			},
			"transport": map[string]interface{}{
				"type":        "string",
				"description": "wired, localNetwork, ...",
			},
		},
		"required": []string{"type", "schemaVersion", "udid", "name"},
	}
}

func appSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Installed App",
		"description": "One app installed on a simulator",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "app",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"bundle_id": map[string]interface{}{
				"type":        "string",
				"description": "Bundle identifier; pass it to capture -a",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Display name",
			},
			"version": map[string]interface{}{
				"type":        "string",
				"description": "Short version string",
			},
			"build": map[string]interface{}{
				"type":        "string",
				"description": "Build number",
			},
			"app_type": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"user", "system", "internal"},
				"description": "Installation origin",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "App bundle path",
			},
		},
		"required": []string{"type", "schemaVersion", "bundle_id", "name"},
	}
}

func doctorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Doctor Report",
		"description": "Environment check results",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "doctor",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"timestamp": map[string]interface{}{
				"type":        "string",
				"format":      "date-time",
				"description": "ISO8601 report time",
			},
			"checks": map[string]interface{}{
				"type":        "array",
				"description": "Individual check results",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":    map[string]interface{}{"type": "string"},
						"status":  map[string]interface{}{"type": "string", "enum": []string{"ok", "warning", "error"}},
						"message": map[string]interface{}{"type": "string"},
						"details": map[string]interface{}{"type": "string"},
					},
					"required": []string{"name", "status", "message"},
				},
			},
			"all_passed": map[string]interface{}{
				"type":        "boolean",
				"description": "True when no check errored",
			},
			"error_count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of failed checks",
			},
			"warn_count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of warnings",
			},
		},
		"required": []string{"type", "schemaVersion", "timestamp", "checks", "all_passed", "error_count", "warn_count"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error",
		"description": "Machine-readable failure from xctap",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "error",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"code": map[string]interface{}{
				"type":        "string",
				"description": "Stable error code",
				"enum": []string{
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
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable error description",
			},
			"hint": map[string]interface{}{
				"type":        "string",
				"description": "Suggested recovery",
			},
		},
		"required": []string{"type", "schemaVersion", "code", "message"},
	}
}

func infoSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Info",
		"description": "Informational notice, suppressed by --quiet",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "info",
			},
			"schemaVersion": map[string]interface{}{
				"type":        "integer",
				"description": "Event contract version",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Notice text",
			},
		},
		"required": []string{"type", "schemaVersion", "message"},
	}
}
