package version

import (
	"runtime/debug"
	"strings"
)

const modulePath = "github.com/kbukum/apifire"

// Version is set at build time using -ldflags. Empty means "read it from
// build info".
var Version = ""

// Info describes the running apifire build.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
}

// Get returns the version information for the apifire module.
func Get() Info {
	return resolve(Version, debug.ReadBuildInfo)
}

// UserAgent returns the default User-Agent sent by apifire sessions.
func UserAgent() string {
	return "apifire/" + Get().Version
}

func resolve(override string, read func() (*debug.BuildInfo, bool)) Info {
	info := Info{Version: override}

	if bi, ok := read(); ok {
		info.GoVersion = bi.GoVersion
		if info.Version == "" {
			info.Version = moduleVersion(bi)
		}
	}
	if info.Version == "" || info.Version == "(devel)" {
		info.Version = "dev"
	}
	info.IsRelease = info.Version != "dev" &&
		!strings.Contains(info.Version, "dirty") &&
		!isPseudo(info.Version)
	return info
}

// isPseudo reports whether v looks like a pseudo-version, which ends in a
// timestamp and a 12 character commit hash.
func isPseudo(v string) bool {
	parts := strings.Split(v, "-")
	return len(parts) >= 3 && len(parts[len(parts)-1]) == 12
}

// moduleVersion finds apifire either as the main module or as a dependency.
func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == modulePath {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return ""
}
