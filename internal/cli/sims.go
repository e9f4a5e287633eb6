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

// SimsCmd lists iOS simulators known to simctl.
type SimsCmd struct {
	Booted bool `help:"Only booted simulators"`
}

// Run executes the sims command
func (c *SimsCmd) Run(globals *Globals) error {
	mgr := device.NewManager(command.NewRunner(nil, verboseLogger(globals)))

	sims, err := mgr.ListSimulators(context.Background())
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error(), "is Xcode installed? try 'xctap doctor'")
	}

	if c.Booted {
		sims = lo.Filter(sims, func(s device.Simulator, _ int) bool {
			return s.Available && s.State == "Booted"
		})
	}

	if globals.Format == "ndjson" {
		writer := output.NewNDJSONWriter(globals.Stdout)
		for _, s := range sims {
			ev := &output.Simulator{
				Type:          "simulator",
				SchemaVersion: output.SchemaVersion,
				UDID:          s.UDID,
				Name:          s.Name,
				State:         s.State,
				Runtime:       s.Runtime,
				Available:     s.Available,
			}
			if err := writer.Write(ev); err != nil {
				return err
			}
		}
		if len(sims) == 0 && !globals.Quiet {
			writer.WriteInfo("no simulators found")
		}
		return nil
	}

	if len(sims) == 0 {
		fmt.Fprintln(globals.Stdout, "No simulators found.")
		return nil
	}
	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Name", "State", "Runtime", "UDID")
	for _, s := range sims {
		table.Append([]string{s.Name, s.State, s.Runtime, s.UDID})
	}
	return table.Render()
}
