package version

import (
	"runtime/debug"
	"strings"
)

// Override is set with -ldflags "-X .../internal/version.Override=v1.2.3"
// by release builds.
var Override string

func String() string {
	if Override != "" {
		return Override
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	version := info.Main.Version
	if version != "" && version != "(devel)" && !strings.Contains(version, "+dirty") && !isPseudoVersion(version) {
		return version
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	switch {
	case revision == "":
		return "(devel)"
	case modified:
		return "(devel " + revision + "-dirty)"
	default:
		return "(devel " + revision + ")"
	}
}

// isPseudoVersion matches vX.Y.Z-yyyymmddhhmmss-abcdefabcdef forms.
func isPseudoVersion(version string) bool {
	version, _, _ = strings.Cut(version, "+")

	parts := strings.Split(version, "-")
	if len(parts) < 3 {
		return false
	}

	ts := parts[len(parts)-2]
	if i := strings.LastIndexByte(ts, '.'); i >= 0 {
		ts = ts[i+1:]
	}
	hash := parts[len(parts)-1]
	return len(ts) == 14 && strings.Trim(ts, "0123456789") == "" &&
		len(hash) >= 12 && strings.Trim(strings.ToLower(hash), "0123456789abcdef") == ""
}
