package pipeline

// platform.go centralizes the per-platform attribute table so that
// suffixing and stripping decisions live in exactly one place.

import "fmt"

// OS identifies one supported build platform.
type OS string

const (
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSMac     OS = "macos"
)

// platformAttrs are the attributes fully determined by the OS identifier.
type platformAttrs struct {
	// Executable suffix ("" or ".exe")
	ExeSuffix string
	// Whether debug symbols can be stripped on this platform
	SupportsStrip bool
	// Suffix used when deriving the default artifact name
	ArtifactLabel string
}

// platformTable is the exhaustive lookup keyed by OS identifier.
var platformTable = map[OS]platformAttrs{
	OSLinux:   {ExeSuffix: "", SupportsStrip: true, ArtifactLabel: "linux"},
	OSWindows: {ExeSuffix: ".exe", SupportsStrip: false, ArtifactLabel: "windows"},
	OSMac:     {ExeSuffix: "", SupportsStrip: true, ArtifactLabel: "mac"},
}

// AllOS lists the supported platforms in matrix order.
func AllOS() []OS {
	return []OS{OSLinux, OSWindows, OSMac}
}

// attrsFor resolves the platform table entry for an OS identifier.
func attrsFor(os OS) (platformAttrs, error) {
	attrs, ok := platformTable[os]
	if !ok {
		return platformAttrs{}, fmt.Errorf("unsupported platform %q (supported: linux, windows, macos)", os)
	}
	return attrs, nil
}
