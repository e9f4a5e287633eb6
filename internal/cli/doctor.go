package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/samber/lo"

	"github.com/vburojevic/xctap/internal/capture"
	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/config"
	"github.com/vburojevic/xctap/internal/device"
	"github.com/vburojevic/xctap/internal/output"
)

// DoctorCmd checks that the capture environment works end to end.
type DoctorCmd struct{}

// checkResult is one doctor check outcome.
type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // ok, warning, error
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// doctorReport is the full doctor output.
type doctorReport struct {
	Type          string        `json:"type"` // "doctor"
	SchemaVersion int           `json:"schemaVersion"`
	Timestamp     string        `json:"timestamp"`
	Checks        []checkResult `json:"checks"`
	AllPassed     bool          `json:"all_passed"`
	ErrorCount    int           `json:"error_count"`
	WarnCount     int           `json:"warn_count"`
}

// Run executes the doctor command
func (c *DoctorCmd) Run(globals *Globals) error {
	ctx := context.Background()
	mgr := device.NewManager(command.NewRunner(nil, verboseLogger(globals)))
	store := capture.NewFileStore(globals.Config.Capture.Dir)

	checks := []checkResult{
		c.checkXcrun(),
		c.checkSimctl(ctx, mgr),
		c.checkDevicectl(ctx, mgr),
		c.checkCaptureDir(store),
		c.checkRetention(globals.Config),
		c.checkConfigFile(),
	}

	report := doctorReport{
		Type:          "doctor",
		SchemaVersion: output.SchemaVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Checks:        checks,
		ErrorCount:    lo.CountBy(checks, func(r checkResult) bool { return r.Status == "error" }),
		WarnCount:     lo.CountBy(checks, func(r checkResult) bool { return r.Status == "warning" }),
	}
	report.AllPassed = report.ErrorCount == 0

	if globals.Format == "ndjson" {
		if err := json.NewEncoder(globals.Stdout).Encode(report); err != nil {
			return err
		}
	} else {
		c.outputText(globals, report)
	}

	if report.ErrorCount > 0 {
		return fmt.Errorf("doctor found %d problems", report.ErrorCount)
	}
	return nil
}

func (c *DoctorCmd) outputText(globals *Globals, report doctorReport) {
	fmt.Fprintln(globals.Stdout, "xctap environment checks:")
	fmt.Fprintln(globals.Stdout)
	for _, check := range report.Checks {
		marker := "ok"
		switch check.Status {
		case "warning":
			marker = "warn"
		case "error":
			marker = "FAIL"
		}
		fmt.Fprintf(globals.Stdout, "  [%4s] %s: %s\n", marker, check.Name, check.Message)
		if check.Details != "" {
			fmt.Fprintf(globals.Stdout, "         %s\n", check.Details)
		}
	}
	fmt.Fprintln(globals.Stdout)
	fmt.Fprintf(globals.Stdout, "%d checks: %d ok, %d warnings, %d errors\n",
		len(report.Checks), len(report.Checks)-report.WarnCount-report.ErrorCount,
		report.WarnCount, report.ErrorCount)
}

func (c *DoctorCmd) checkXcrun() checkResult {
	path, err := exec.LookPath("xcrun")
	if err != nil {
		return checkResult{
			Name:    "xcrun",
			Status:  "error",
			Message: "xcrun not found on PATH",
			Details: "install Xcode or the Command Line Tools (xcode-select --install)",
		}
	}
	return checkResult{Name: "xcrun", Status: "ok", Message: "found", Details: path}
}

func (c *DoctorCmd) checkSimctl(ctx context.Context, mgr *device.Manager) checkResult {
	sims, err := mgr.ListSimulators(ctx)
	if err != nil {
		return checkResult{Name: "simctl", Status: "error", Message: "simctl list failed", Details: err.Error()}
	}
	booted := lo.CountBy(sims, func(s device.Simulator) bool {
		return s.Available && s.State == "Booted"
	})
	if booted == 0 {
		return checkResult{
			Name:    "simctl",
			Status:  "warning",
			Message: fmt.Sprintf("%d simulators, none booted", len(sims)),
			Details: "captures will need an explicit --simulator target",
		}
	}
	return checkResult{Name: "simctl", Status: "ok", Message: fmt.Sprintf("%d simulators, %d booted", len(sims), booted)}
}

func (c *DoctorCmd) checkDevicectl(ctx context.Context, mgr *device.Manager) checkResult {
	devices, err := mgr.ListDevices(ctx)
	if err != nil {
		return checkResult{
			Name:    "devicectl",
			Status:  "warning",
			Message: "devicectl unavailable",
			Details: "physical device capture needs Xcode 15 or newer",
		}
	}
	return checkResult{Name: "devicectl", Status: "ok", Message: fmt.Sprintf("%d devices connected", len(devices))}
}

func (c *DoctorCmd) checkCaptureDir(store *capture.FileStore) checkResult {
	dir := store.Dir()
	if !c.checkWritePermission(dir) {
		return checkResult{
			Name:    "capture directory",
			Status:  "error",
			Message: "not writable",
			Details: dir,
		}
	}
	return checkResult{Name: "capture directory", Status: "ok", Message: "writable", Details: dir}
}

func (c *DoctorCmd) checkRetention(cfg *config.Config) checkResult {
	retention := cfg.Capture.Retention()
	if retention > 30*24*time.Hour {
		return checkResult{
			Name:    "retention",
			Status:  "warning",
			Message: fmt.Sprintf("%s is a long time to keep capture files", retention),
			Details: "lower capture.retention_days to keep the temp directory small",
		}
	}
	return checkResult{Name: "retention", Status: "ok", Message: retention.String()}
}

func (c *DoctorCmd) checkConfigFile() checkResult {
	path := config.ConfigFile()
	if path == "" {
		return checkResult{Name: "config", Status: "ok", Message: "no config file, defaults apply"}
	}
	return checkResult{Name: "config", Status: "ok", Message: "loaded", Details: path}
}

// checkWritePermission probes dir with a throwaway file.
func (c *DoctorCmd) checkWritePermission(dir string) bool {
	f, err := os.CreateTemp(dir, ".xctap_doctor_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
