package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/xctap/internal/command"
	"github.com/vburojevic/xctap/internal/device"
	"github.com/vburojevic/xctap/internal/output"
)

// DevicesCmd lists physical devices known to devicectl.
type DevicesCmd struct{}

// Run executes the devices command
func (c *DevicesCmd) Run(globals *Globals) error {
	mgr := device.NewManager(command.NewRunner(nil, verboseLogger(globals)))

	devices, err := mgr.ListDevices(context.Background())
	if err != nil {
		return outputErrorCommon(globals, "LIST_FAILED", err.Error(), "physical device support needs Xcode 15 or newer")
	}

	if globals.Format == "ndjson" {
		writer := output.NewNDJSONWriter(globals.Stdout)
		for _, d := range devices {
			ev := &output.Device{
				Type:          "device",
				SchemaVersion: output.SchemaVersion,
				UDID:          d.Ref(),
				Name:          d.Name,
				Platform:      d.Platform,
				OSVersion:     d.OSVersion,
				Transport:     d.Transport,
			}
			if err := writer.Write(ev); err != nil {
				return err
			}
		}
		if len(devices) == 0 && !globals.Quiet {
			writer.WriteInfo("no devices found")
		}
		return nil
	}

	if len(devices) == 0 {
		fmt.Fprintln(globals.Stdout, "No devices found.")
		return nil
	}
	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Name", "Platform", "OS", "Transport", "UDID")
	for _, d := range devices {
		table.Append([]string{d.Name, d.Platform, d.OSVersion, d.Transport, d.Ref()})
	}
	return table.Render()
}
