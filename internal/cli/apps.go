package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/device"
	"github.com/vburojevic/xctap/internal/output"
)

// AppsCmd lists apps installed on a simulator, so agents can find the
// bundle identifier to capture.
type AppsCmd struct {
	Simulator string `short:"s" default:"${config_simulator}" help:"Simulator name, UDID, or 'booted'"`
	System    bool   `help:"Include system apps"`
}

// Run executes the apps command
func (c *AppsCmd) Run(globals *Globals) error {
	ctx := context.Background()
	mgr := device.NewManager(command.NewRunner(nil, verboseLogger(globals)))

	sim, err := mgr.FindSimulator(ctx, c.Simulator)
	if err != nil {
		return outputErrorCommon(globals, "DEVICE_NOT_FOUND", err.Error(), "run 'xctap sims' to see simulators")
	}
	globals.Debug("Listing apps on %s (%s)", sim.Name, sim.UDID)

	apps, err := mgr.ListApps(ctx, sim.UDID)
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error())
	}

	if !c.System {
		apps = lo.Filter(apps, func(a device.App, _ int) bool { return a.AppType == "user" })
	}

	if globals.Format == "ndjson" {
		writer := output.NewNDJSONWriter(globals.Stdout)
		for _, a := range apps {
			ev := &output.App{
				Type:          "app",
				SchemaVersion: output.SchemaVersion,
				BundleID:      a.BundleID,
				Name:          a.Name,
				Version:       a.Version,
				Build:         a.Build,
				AppType:       a.AppType,
				Path:          a.Path,
			}
			if err := writer.Write(ev); err != nil {
				return err
			}
		}
		if len(apps) == 0 && !globals.Quiet {
			writer.WriteInfo(fmt.Sprintf("no %s apps installed on %s", appScope(c.System), sim.Name))
		}
		return nil
	}

	if len(apps) == 0 {
		fmt.Fprintf(globals.Stdout, "No %s apps installed on %s.\n", appScope(c.System), sim.Name)
		return nil
	}
	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Bundle ID", "Name", "Version", "Type")
	for _, a := range apps {
		version := a.Version
		if version != "" && a.Build != "" {
			version = fmt.Sprintf("%s (%s)", a.Version, a.Build)
		}
		table.Append([]string{a.BundleID, a.Name, version, a.AppType})
	}
	return table.Render()
}

func appScope(system bool) string {
	if system {
		return "user or system"
	}
	return "user"
}
