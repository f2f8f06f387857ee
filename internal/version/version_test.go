package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	cases := []struct {
		name     string
		version  string
		settings map[string]string
		want     string
	}{
		{"tagged", "v0.3.1", nil, "v0.3.1"},
		{"devel", "(devel)", nil, "(devel)"},
		{"pseudo", "v0.0.0-20250716020515-7a30fe114040", nil, "(devel)"},
		{"prereleasePseudo", "v0.3.2-0.20250716020515-7a30fe114040", nil, "(devel)"},
		{"dirtyTag", "v0.3.1+dirty", map[string]string{"vcs.revision": "0123456789abcdef", "vcs.modified": "true"}, "(devel 0123456789ab-dirty)"},
		{"revision", "(devel)", map[string]string{"vcs.revision": "abc1234"}, "(devel abc1234)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := &debug.BuildInfo{Main: debug.Module{Version: tc.version}}
			for k, v := range tc.settings {
				info.Settings = append(info.Settings, debug.BuildSetting{Key: k, Value: v})
			}
			if got := fromBuildInfo(info); got != tc.want {
				t.Fatalf("fromBuildInfo(%q) = %q, want %q", tc.version, got, tc.want)
			}
		})
	}
}

func TestOverrideWins(t *testing.T) {
	old := Override
	t.Cleanup(func() { Override = old })
	Override = "v9.9.9"
	if got := String(); got != "v9.9.9" {
		t.Fatalf("String() = %q, want override", got)
	}
}
