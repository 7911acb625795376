// Package buildinfo reports the version stamped into the actionrec binary.
package buildinfo

import "runtime/debug"

var version = "dev"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info identifies a build.
type Info struct {
	Version string
	// Commit is the abbreviated VCS revision, empty when unknown.
	Commit string
	// Modified reports uncommitted changes in the build tree.
	Modified bool
}

// SetVersion allows build scripts to override the CLI version information.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Version returns the semantic version associated with the build.
func Version() string {
	return Read().Version
}

// Read combines the linker-stamped version with the module and VCS data
// recorded by the Go toolchain.
func Read() Info {
	info := Info{Version: version}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Commit = setting.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	if info.Modified && info.Commit != "" {
		info.Commit += "-dirty"
	}
	return info
}
