package device

// Kind distinguishes the two capture target families. They differ only in
// which xcrun tool drives them; session handling is identical.
type Kind string

const (
	KindSimulator Kind = "simulator"
	KindDevice    Kind = "device"
)

// Target is a resolved capture target.
type Target struct {
	Kind Kind
	UDID string
	Name string
}

// Simulator is one iOS Simulator known to simctl.
type Simulator struct {
	UDID       string
	Name       string
	State      string // Booted, Shutdown, ...
	Runtime    string // e.g. "iOS 17.0"
	DeviceType string
	Available  bool
}

// Device is one physical device known to devicectl.
type Device struct {
	// Identifier is the devicectl identity, accepted by --device.
	Identifier string
	// UDID is the hardware UDID, empty for unpaired devices.
	UDID      string
	Name      string
	Platform  string
	OSVersion string
	Transport string // wired, localNetwork, ...
}

// App is one app installed on a simulator.
type App struct {
	BundleID string
	Name     string
	Version  string
	Build    string
	AppType  string // user, system, internal
	Path     string
	DataPath string
}

// Ref returns the identifier to pass to devicectl, preferring the hardware
// UDID when present.
func (d Device) Ref() string {
	if d.UDID != "" {
		return d.UDID
	}
	return d.Identifier
}
