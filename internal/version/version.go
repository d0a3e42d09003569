// Package version reports the build of rev4ctl and the codec it carries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/muurk/rev4switch/internal/protocol"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/rev4switch/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/rev4switch/internal/version.Commit=abc123"
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(readBuildSettings())
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// Info is the version report printed by `rev4ctl version` and served on
// the bridge's /protocol endpoint.
type Info struct {
	Version         string `json:"version"`
	Commit          string `json:"commit"`
	GoVersion       string `json:"go_version"`
	Protocol        string `json:"protocol"`
	ProtocolVersion string `json:"protocol_version"`
}

// Get returns the current build's Info.
func Get() Info {
	return Info{
		Version:         Version,
		Commit:          Commit,
		GoVersion:       runtime.Version(),
		Protocol:        protocol.ProtocolID,
		ProtocolVersion: protocol.ModuleVersion,
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s, %s %s)", Version, Commit, protocol.ProtocolID, protocol.ModuleVersion)
}

// UserAgent identifies the client on bridge connections.
func UserAgent() string {
	return "rev4ctl/" + strings.TrimPrefix(Version, "v")
}

func readBuildSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	return settings
}

// fromBuildInfo fills Commit from the VCS stamp and derives a dev version
// from the commit date.
func fromBuildInfo(settings map[string]string) {
	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}
	if t := settings["vcs.time"]; Version == "" && len(t) >= 10 {
		Version = "dev-" + strings.ReplaceAll(t[:10], "-", "")
	}
}
