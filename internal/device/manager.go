package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"howett.net/plist"

	"github.com/vburojevic/xctap/internal/command"
)

// Manager discovers simulators, physical devices and installed apps through
// the xcrun family of tools.
type Manager struct {
	runner *command.Runner
}

// NewManager creates a Manager. A nil runner falls back to the system
// executor without logging.
func NewManager(runner *command.Runner) *Manager {
	if runner == nil {
		runner = command.NewRunner(nil, nil)
	}
	return &Manager{runner: runner}
}

type simctlList struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

type simctlDevice struct {
	UDID                 string `json:"udid"`
	Name                 string `json:"name"`
	State                string `json:"state"`
	IsAvailable          bool   `json:"isAvailable"`
	DeviceTypeIdentifier string `json:"deviceTypeIdentifier"`
}

const simRuntimePrefix = "com.apple.CoreSimulator.SimRuntime."

// runtimeName turns "com.apple.CoreSimulator.SimRuntime.iOS-17-0" into "iOS 17.0".
func runtimeName(key string) string {
	if !strings.HasPrefix(key, simRuntimePrefix) {
		return key
	}
	parts := strings.Split(strings.TrimPrefix(key, simRuntimePrefix), "-")
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[0] + " " + strings.Join(parts[1:], ".")
}

// ListSimulators returns all simulators simctl knows about, sorted by name.
func (m *Manager) ListSimulators(ctx context.Context) ([]Simulator, error) {
	res := m.runner.Run(ctx, "list simulators", "xcrun", "simctl", "list", "devices", "--json")
	if !res.Success {
		return nil, fmt.Errorf("simctl list failed: %s", commandFailure(res))
	}

	var list simctlList
	if err := json.Unmarshal([]byte(res.Output), &list); err != nil {
		return nil, fmt.Errorf("parse simctl list output: %w", err)
	}

	var sims []Simulator
	for key, devices := range list.Devices {
		runtime := runtimeName(key)
		for _, d := range devices {
			sims = append(sims, Simulator{
				UDID:       d.UDID,
				Name:       d.Name,
				State:      d.State,
				Runtime:    runtime,
				DeviceType: d.DeviceTypeIdentifier,
				Available:  d.IsAvailable,
			})
		}
	}
	sort.Slice(sims, func(i, j int) bool {
		if sims[i].Name != sims[j].Name {
			return sims[i].Name < sims[j].Name
		}
		return sims[i].Runtime < sims[j].Runtime
	})
	return sims, nil
}

// FindSimulator resolves a simulator reference: "booted" (or empty) picks
// the single booted simulator, otherwise an exact UDID, exact name, or
// unique name prefix wins. Exact name matches prefer the booted simulator
// when several runtimes carry the same name.
func (m *Manager) FindSimulator(ctx context.Context, ref string) (Simulator, error) {
	sims, err := m.ListSimulators(ctx)
	if err != nil {
		return Simulator{}, err
	}

	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "booted") {
		booted := lo.Filter(sims, func(s Simulator, _ int) bool {
			return s.Available && s.State == "Booted"
		})
		switch len(booted) {
		case 0:
			return Simulator{}, errors.New("no booted simulator found")
		case 1:
			return booted[0], nil
		default:
			names := lo.Map(booted, func(s Simulator, _ int) string { return s.Name })
			return Simulator{}, fmt.Errorf("multiple booted simulators (%s); pass a name or UDID", strings.Join(names, ", "))
		}
	}

	for _, s := range sims {
		if s.UDID == ref {
			return s, nil
		}
	}

	byName := lo.Filter(sims, func(s Simulator, _ int) bool {
		return strings.EqualFold(s.Name, ref)
	})
	if len(byName) > 0 {
		for _, s := range byName {
			if s.State == "Booted" {
				return s, nil
			}
		}
		for _, s := range byName {
			if s.Available {
				return s, nil
			}
		}
		return byName[0], nil
	}

	lower := strings.ToLower(ref)
	byPrefix := lo.Filter(sims, func(s Simulator, _ int) bool {
		return strings.HasPrefix(strings.ToLower(s.Name), lower)
	})
	switch len(byPrefix) {
	case 0:
		return Simulator{}, fmt.Errorf("simulator %q not found", ref)
	case 1:
		return byPrefix[0], nil
	default:
		names := lo.Uniq(lo.Map(byPrefix, func(s Simulator, _ int) string { return s.Name }))
		return Simulator{}, fmt.Errorf("simulator %q is ambiguous (%s)", ref, strings.Join(names, ", "))
	}
}

type devicectlList struct {
	Result struct {
		Devices []devicectlDevice `json:"devices"`
	} `json:"result"`
}

type devicectlDevice struct {
	Identifier           string `json:"identifier"`
	ConnectionProperties struct {
		TransportType string `json:"transportType"`
	} `json:"connectionProperties"`
	DeviceProperties struct {
		Name            string `json:"name"`
		OSVersionNumber string `json:"osVersionNumber"`
	} `json:"deviceProperties"`
	HardwareProperties struct {
		UDID     string `json:"udid"`
		Platform string `json:"platform"`
	} `json:"hardwareProperties"`
}

// ListDevices returns physical devices known to devicectl. devicectl only
// writes JSON to a file, so the listing goes through a temp file.
func (m *Manager) ListDevices(ctx context.Context) ([]Device, error) {
	tmp, err := os.CreateTemp("", "xctap_devicectl_*.json")
	if err != nil {
		return nil, fmt.Errorf("create devicectl output file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	res := m.runner.Run(ctx, "list devices", "xcrun", "devicectl", "list", "devices", "--json-output", path)
	if !res.Success {
		return nil, fmt.Errorf("devicectl list failed: %s", commandFailure(res))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devicectl output: %w", err)
	}

	var list devicectlList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse devicectl output: %w", err)
	}

	devices := lo.Map(list.Result.Devices, func(d devicectlDevice, _ int) Device {
		return Device{
			Identifier: d.Identifier,
			UDID:       d.HardwareProperties.UDID,
			Name:       d.DeviceProperties.Name,
			Platform:   d.HardwareProperties.Platform,
			OSVersion:  d.DeviceProperties.OSVersionNumber,
			Transport:  d.ConnectionProperties.TransportType,
		}
	})
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// FindDevice resolves a physical device by identifier, UDID, exact name or
// unique name prefix.
func (m *Manager) FindDevice(ctx context.Context, ref string) (Device, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Device{}, errors.New("device name or UDID is required")
	}

	devices, err := m.ListDevices(ctx)
	if err != nil {
		return Device{}, err
	}

	for _, d := range devices {
		if d.Identifier == ref || (d.UDID != "" && d.UDID == ref) {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}

	lower := strings.ToLower(ref)
	byPrefix := lo.Filter(devices, func(d Device, _ int) bool {
		return strings.HasPrefix(strings.ToLower(d.Name), lower)
	})
	switch len(byPrefix) {
	case 0:
		return Device{}, fmt.Errorf("device %q not found", ref)
	case 1:
		return byPrefix[0], nil
	default:
		names := lo.Map(byPrefix, func(d Device, _ int) string { return d.Name })
		return Device{}, fmt.Errorf("device %q is ambiguous (%s)", ref, strings.Join(names, ", "))
	}
}

// FindTarget resolves exactly one of simulatorRef and deviceRef into a
// capture target. An empty simulatorRef means "booted".
func (m *Manager) FindTarget(ctx context.Context, simulatorRef, deviceRef string) (Target, error) {
	if strings.TrimSpace(deviceRef) != "" && strings.TrimSpace(simulatorRef) != "" {
		return Target{}, errors.New("pass either a simulator or a device, not both")
	}
	if strings.TrimSpace(deviceRef) != "" {
		d, err := m.FindDevice(ctx, deviceRef)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindDevice, UDID: d.Ref(), Name: d.Name}, nil
	}
	s, err := m.FindSimulator(ctx, simulatorRef)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: KindSimulator, UDID: s.UDID, Name: s.Name}, nil
}

type appRecord struct {
	ApplicationType    string `plist:"ApplicationType"`
	BundleDisplayName  string `plist:"CFBundleDisplayName"`
	BundleName         string `plist:"CFBundleName"`
	BundleVersion      string `plist:"CFBundleVersion"`
	ShortVersionString string `plist:"CFBundleShortVersionString"`
	Path               string `plist:"Path"`
	DataContainer      string `plist:"DataContainer"`
}

// ListApps returns apps installed on a simulator. simctl listapps emits an
// OpenStep-style plist keyed by bundle identifier.
func (m *Manager) ListApps(ctx context.Context, udid string) ([]App, error) {
	if strings.TrimSpace(udid) == "" {
		return nil, errors.New("simulator UDID is required")
	}

	res := m.runner.Run(ctx, "list installed apps", "xcrun", "simctl", "listapps", udid)
	if !res.Success {
		return nil, fmt.Errorf("simctl listapps failed: %s", commandFailure(res))
	}

	var records map[string]appRecord
	if _, err := plist.Unmarshal([]byte(res.Output), &records); err != nil {
		return nil, fmt.Errorf("parse listapps output: %w", err)
	}

	apps := make([]App, 0, len(records))
	for bundleID, rec := range records {
		name := rec.BundleDisplayName
		if name == "" {
			name = rec.BundleName
		}
		if name == "" {
			name = bundleID
		}
		apps = append(apps, App{
			BundleID: bundleID,
			Name:     name,
			Version:  rec.ShortVersionString,
			Build:    rec.BundleVersion,
			AppType:  strings.ToLower(rec.ApplicationType),
			Path:     rec.Path,
			DataPath: rec.DataContainer,
		})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].BundleID < apps[j].BundleID })
	return apps, nil
}

func commandFailure(res command.Result) string {
	out := strings.TrimSpace(res.Output)
	if out != "" {
		return out
	}
	return res.Err
}
