package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubListingXcrun installs a fake xcrun answering the discovery calls the
// listing commands make: simctl list, devicectl list, simctl listapps.
func stubListingXcrun(t *testing.T, script string) {
	t.Helper()
	stubDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stubDir, "xcrun"), []byte(script), 0o755))
	t.Setenv("PATH", stubDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

const listingStub = `#!/bin/sh
set -eu

if [ "$#" -ge 4 ] && [ "$1" = "simctl" ] && [ "$2" = "list" ] && [ "$3" = "devices" ] && [ "$4" = "--json" ]; then
  cat <<'EOF'
{
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.iOS-17-0": [
      {
        "udid": "TEST-UDID-123",
        "name": "iPhone 17 Pro",
        "state": "Booted",
        "isAvailable": true,
        "deviceTypeIdentifier": "com.apple.CoreSimulator.SimDeviceType.iPhone-17-Pro"
      },
      {
        "udid": "TEST-UDID-456",
        "name": "iPhone 17",
        "state": "Shutdown",
        "isAvailable": true,
        "deviceTypeIdentifier": "com.apple.CoreSimulator.SimDeviceType.iPhone-17"
      }
    ]
  }
}
EOF
  exit 0
fi

if [ "$#" -ge 5 ] && [ "$1" = "devicectl" ] && [ "$2" = "list" ] && [ "$3" = "devices" ] && [ "$4" = "--json-output" ]; then
  cat > "$5" <<'EOF'
{
  "result": {
    "devices": [
      {
        "identifier": "ABCDEF01-2345-6789-ABCD-EF0123456789",
        "connectionProperties": { "transportType": "wired" },
        "deviceProperties": { "name": "Vedran iPhone", "osVersionNumber": "18.1" },
        "hardwareProperties": { "udid": "00008120-001234567890ABCD", "platform": "iOS" }
      }
    ]
  }
}
EOF
  exit 0
fi

if [ "$#" -ge 3 ] && [ "$1" = "simctl" ] && [ "$2" = "listapps" ]; then
  cat <<'EOF'
{
    "com.example.myapp" =     {
        ApplicationType = User;
        CFBundleDisplayName = MyApp;
        CFBundleIdentifier = "com.example.myapp";
        CFBundleName = MyApp;
        CFBundleShortVersionString = "1.2.3";
        CFBundleVersion = 42;
        Path = "/tmp/MyApp.app";
    };
    "com.apple.mobilesafari" =     {
        ApplicationType = System;
        CFBundleIdentifier = "com.apple.mobilesafari";
        CFBundleName = MobileSafari;
        CFBundleVersion = 8620;
        Path = "/Applications/MobileSafari.app";
    };
}
EOF
  exit 0
fi

echo "stub: unsupported xcrun args: $*" >&2
exit 1
`

const failingStub = `#!/bin/sh
echo "xcrun: error: unable to find utility" >&2
exit 1
`

func TestSimsCmd_WithStubXcrun(t *testing.T) {
	stubListingXcrun(t, listingStub)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &SimsCmd{}
	require.NoError(t, cmd.Run(globals))

	events := decodeNDJSON(t, stdout.String())
	require.Len(t, events, 2)

	assert.Equal(t, "simulator", events[0]["type"])
	assert.Equal(t, "iPhone 17", events[0]["name"])
	assert.Equal(t, "Shutdown", events[0]["state"])
	assert.Equal(t, "iPhone 17 Pro", events[1]["name"])
	assert.Equal(t, "Booted", events[1]["state"])
	assert.Equal(t, "iOS 17.0", events[1]["runtime"])
}

func TestSimsCmd_BootedOnly(t *testing.T) {
	stubListingXcrun(t, listingStub)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &SimsCmd{Booted: true}
	require.NoError(t, cmd.Run(globals))

	events := decodeNDJSON(t, stdout.String())
	require.Len(t, events, 1)
	assert.Equal(t, "iPhone 17 Pro", events[0]["name"])
	assert.Equal(t, "TEST-UDID-123", events[0]["udid"])
}

func TestSimsCmd_ListFailed(t *testing.T) {
	stubListingXcrun(t, failingStub)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &SimsCmd{}
	err := cmd.Run(globals)
	require.Error(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	assert.Equal(t, "error", ev["type"])
	assert.Equal(t, "LIST_FAILED", ev["code"])
}

func TestDevicesCmd_WithStubXcrun(t *testing.T) {
	stubListingXcrun(t, listingStub)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &DevicesCmd{}
	require.NoError(t, cmd.Run(globals))

	events := decodeNDJSON(t, stdout.String())
	require.Len(t, events, 1)

	assert.Equal(t, "device", events[0]["type"])
	assert.Equal(t, "Vedran iPhone", events[0]["name"])
	assert.Equal(t, "00008120-001234567890ABCD", events[0]["udid"])
	assert.Equal(t, "wired", events[0]["transport"])
	assert.Equal(t, "18.1", events[0]["os_version"])
}

func TestAppsCmd_WithStubXcrun(t *testing.T) {
	stubListingXcrun(t, listingStub)

	t.Run("user apps only by default", func(t *testing.T) {
		globals, stdout, _ := captureTestGlobals(t)
		cmd := &AppsCmd{Simulator: "booted"}
		require.NoError(t, cmd.Run(globals))

		events := decodeNDJSON(t, stdout.String())
		require.Len(t, events, 1)
		assert.Equal(t, "app", events[0]["type"])
		assert.Equal(t, "com.example.myapp", events[0]["bundle_id"])
		assert.Equal(t, "MyApp", events[0]["name"])
		assert.Equal(t, "1.2.3", events[0]["version"])
	})

	t.Run("system flag includes everything", func(t *testing.T) {
		globals, stdout, _ := captureTestGlobals(t)
		cmd := &AppsCmd{Simulator: "booted", System: true}
		require.NoError(t, cmd.Run(globals))

		events := decodeNDJSON(t, stdout.String())
		require.Len(t, events, 2)
		assert.Equal(t, "com.apple.mobilesafari", events[0]["bundle_id"])
	})
}

func TestAppsCmd_SimulatorNotFound(t *testing.T) {
	stubListingXcrun(t, listingStub)
	globals, stdout, _ := captureTestGlobals(t)

	cmd := &AppsCmd{Simulator: "Apple Watch"}
	err := cmd.Run(globals)
	require.Error(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	assert.Equal(t, "DEVICE_NOT_FOUND", ev["code"])
}
