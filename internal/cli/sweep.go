package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/output"
)

// SweepCmd runs the retention sweep on demand. The same sweep also rides
// on every capture start, so this exists for inspection and forced
// cleanup, not correctness.
type SweepCmd struct {
	DryRun    bool   `help:"Report stale files without deleting them"`
	Retention string `help:"Override the retention window (e.g. 24h, 72h)"`
}

// Run executes the sweep command
func (c *SweepCmd) Run(globals *Globals) error {
	retention := globals.Config.Capture.Retention()
	if strings.TrimSpace(c.Retention) != "" {
		d, err := time.ParseDuration(c.Retention)
		if err != nil || d <= 0 {
			return outputErrorCommon(globals, "INVALID_RETENTION", fmt.Sprintf("invalid retention %q", c.Retention), "use a Go duration like 24h or 72h")
		}
		retention = d
	}

	log := verboseLogger(globals)
	store := capture.NewFileStore(globals.Config.Capture.Dir)
	sweeper := capture.NewSweeper(store.Dir(), retention, nil, log)

	res, files := sweeper.Run(c.DryRun)

	if globals.Format == "ndjson" {
		return c.outputNDJSON(globals, sweeper, res, files)
	}
	return c.outputText(globals, sweeper, res, files)
}

func (c *SweepCmd) outputNDJSON(globals *Globals, sweeper *capture.Sweeper, res capture.SweepResult, files []capture.SweptFile) error {
	writer := output.NewNDJSONWriter(globals.Stdout)

	// Dry runs list the files that would go; real sweeps already deleted
	// them, so only the summary is trustworthy.
	if c.DryRun {
		for _, f := range files {
			ev := &output.CaptureFile{
				Type:          "capture_file",
				SchemaVersion: output.SchemaVersion,
				Path:          f.Path,
				SizeBytes:     f.Size,
				AgeSeconds:    int64(f.Age.Seconds()),
			}
			if err := writer.WriteCaptureFile(ev); err != nil {
				return err
			}
		}
	}

	return writer.WriteSweepResult(&output.SweepResult{
		Type:          "sweep_result",
		SchemaVersion: output.SchemaVersion,
		Dir:           sweeper.Dir(),
		RetentionDays: int(sweeper.Retention() / (24 * time.Hour)),
		Scanned:       res.Scanned,
		Matched:       res.Matched,
		Deleted:       res.Deleted,
		Failed:        res.Failed,
		FreedBytes:    res.Freed,
		DryRun:        c.DryRun,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *SweepCmd) outputText(globals *Globals, sweeper *capture.Sweeper, res capture.SweepResult, files []capture.SweptFile) error {
	if c.DryRun {
		if len(files) == 0 {
			fmt.Fprintf(globals.Stdout, "Nothing to sweep in %s (%d capture files scanned).\n", sweeper.Dir(), res.Scanned)
			return nil
		}
		table := tablewriter.NewWriter(globals.Stdout)
		table.Header("Age", "Size", "File")
		var total int64
		for _, f := range files {
			table.Append([]string{humanAge(f.Age), humanSize(f.Size), filepath.Base(f.Path)})
			total += f.Size
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintf(globals.Stdout, "Would delete %d of %d capture files (%s).\n", res.Matched, res.Scanned, humanSize(total))
		return nil
	}

	fmt.Fprintf(globals.Stdout, "Deleted %d of %d stale capture files in %s, freed %s (%d scanned).\n",
		res.Deleted, res.Matched, sweeper.Dir(), humanSize(res.Freed), res.Scanned)
	if res.Failed > 0 {
		fmt.Fprintf(globals.Stderr, "Warning: %d files could not be deleted\n", res.Failed)
	}
	return nil
}
