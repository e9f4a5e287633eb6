package cli

import (
	"errors"
	"fmt"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/output"
)

// outputErrorCommon normalizes error emission across commands, respecting
// ndjson vs text formats so AI agents always get machine-readable failures.
func outputErrorCommon(globals *Globals, code, message string, hint ...string) error {
	if globals != nil && globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, hint...)
	} else if globals != nil {
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s", code, message)
		if len(hint) > 0 && hint[0] != "" {
			fmt.Fprintf(globals.Stderr, " (hint: %s)", hint[0])
		}
		fmt.Fprintln(globals.Stderr)
	}
	return errors.New(message)
}

// outputCaptureError emits a capture subsystem failure with its error code.
func outputCaptureError(globals *Globals, err error, hint ...string) error {
	return outputErrorCommon(globals, capture.Code(err), err.Error(), hint...)
}
