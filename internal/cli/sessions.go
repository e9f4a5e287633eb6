package cli

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/filter"
	"github.com/vburojevic/xctap/internal/output"
)

// SessionsCmd lists capture files recorded on disk, newest first. The file
// header carries the session metadata, so listing works long after the
// process that captured is gone.
type SessionsCmd struct {
	Pattern string   `short:"p" help:"Regex on capture file names"`
	Exclude []string `short:"x" help:"Regex to exclude capture file names (repeatable)"`
	Where   []string `short:"w" help:"Header field filter: field=value, field~regex, age>=2h (repeatable, AND)"`
	Last    bool     `help:"Show only the most recent capture started from this machine"`
}

// Run executes the sessions command
func (c *SessionsCmd) Run(globals *Globals) error {
	pipeline, err := c.buildPipeline(globals)
	if err != nil {
		return err
	}

	store := capture.NewFileStore(globals.Config.Capture.Dir)
	files, err := store.List()
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error())
	}

	if c.Last {
		files, err = c.filterLast(globals, files)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	matched := make([]capture.FileInfo, 0, len(files))
	for _, f := range files {
		if pipeline.Match(f, now) {
			matched = append(matched, f)
		}
	}

	if globals.Format == "ndjson" {
		return c.outputNDJSON(globals, matched, now)
	}
	return c.outputText(globals, matched, now)
}

func (c *SessionsCmd) buildPipeline(globals *Globals) (*filter.Pipeline, error) {
	var pattern *regexp.Regexp
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, outputErrorCommon(globals, "INVALID_PATTERN", fmt.Sprintf("invalid pattern: %v", err))
		}
		pattern = re
	}

	var excludes []*regexp.Regexp
	for _, ex := range c.Exclude {
		re, err := regexp.Compile(ex)
		if err != nil {
			return nil, outputErrorCommon(globals, "INVALID_EXCLUDE_PATTERN", fmt.Sprintf("invalid exclude pattern: %v", err))
		}
		excludes = append(excludes, re)
	}

	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return nil, outputErrorCommon(globals, "INVALID_WHERE", err.Error(), "use field=value, field~regex, or age>=2h")
	}

	return filter.NewPipeline(pattern, excludes, where), nil
}

// filterLast narrows the listing to the session recorded in the last
// capture state file.
func (c *SessionsCmd) filterLast(globals *Globals, files []capture.FileInfo) ([]capture.FileInfo, error) {
	path, err := defaultLastCapturePath()
	if err != nil {
		return nil, outputErrorCommon(globals, "SESSION_NOT_FOUND", fmt.Sprintf("last capture state unavailable: %v", err))
	}
	st, err := loadLastCapture(path)
	if err != nil {
		return nil, outputErrorCommon(globals, "SESSION_NOT_FOUND", fmt.Sprintf("read last capture state: %v", err))
	}
	if st == nil {
		return nil, outputErrorCommon(globals, "SESSION_NOT_FOUND", "no capture has been recorded yet", "start one with 'xctap capture'")
	}
	for _, f := range files {
		if f.HasHeader && f.Header.SessionID == st.SessionID {
			return []capture.FileInfo{f}, nil
		}
	}
	return nil, outputErrorCommon(globals, "SESSION_NOT_FOUND",
		fmt.Sprintf("last capture %s is no longer on disk", st.SessionID),
		"the retention sweeper may have collected it")
}

func (c *SessionsCmd) outputNDJSON(globals *Globals, files []capture.FileInfo, now time.Time) error {
	writer := output.NewNDJSONWriter(globals.Stdout)
	for _, f := range files {
		ev := &output.CaptureFile{
			Type:          "capture_file",
			SchemaVersion: output.SchemaVersion,
			Path:          f.Path,
			SizeBytes:     f.Size,
			ModifiedAt:    f.ModTime.UTC().Format(time.RFC3339),
			AgeSeconds:    int64(now.Sub(f.ModTime).Seconds()),
		}
		if f.HasHeader {
			ev.SessionID = f.Header.SessionID
			ev.Kind = f.Header.Kind
			ev.Target = f.Header.Target
			ev.App = f.Header.App
			ev.Mode = f.Header.Mode
		}
		if err := writer.WriteCaptureFile(ev); err != nil {
			return err
		}
	}
	if len(files) == 0 && !globals.Quiet {
		writer.WriteInfo("no capture files found")
	}
	return nil
}

func (c *SessionsCmd) outputText(globals *Globals, files []capture.FileInfo, now time.Time) error {
	if len(files) == 0 {
		fmt.Fprintln(globals.Stdout, "No capture files found.")
		return nil
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Age", "Size", "App", "Mode", "File")
	for _, f := range files {
		app, mode := "-", "-"
		if f.HasHeader {
			app, mode = f.Header.App, f.Header.Mode
		}
		table.Append([]string{
			humanAge(now.Sub(f.ModTime)),
			humanSize(f.Size),
			app,
			mode,
			filepath.Base(f.Path),
		})
	}
	return table.Render()
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}
