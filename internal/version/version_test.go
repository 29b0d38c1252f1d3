package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
	}

	tests := []struct {
		name        string
		version     string
		commit      string
		settings    []debug.BuildSetting
		wantVersion string
		wantCommit  string
	}{
		{"from vcs", "", "", settings, "dev-20260314", "0123456-dirty"},
		{"ldflags win", "v1.0.0", "feed", settings, "v1.0.0", "feed"},
		{"short revision clean", "", "", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "", "abc"},
		{"bad time", "", "", []debug.BuildSetting{{Key: "vcs.time", Value: "yesterday"}}, "", ""},
		{"no settings", "", "", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := fromSettings(tt.version, tt.commit, tt.settings)
			if v != tt.wantVersion {
				t.Errorf("version = %q, want %q", v, tt.wantVersion)
			}
			if c != tt.wantCommit {
				t.Errorf("commit = %q, want %q", c, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if Version == "" || Commit == "" {
		t.Fatal("init should always populate Version and Commit")
	}
	if !strings.Contains(full, Version) || !strings.Contains(full, "(commit: "+Commit+")") {
		t.Errorf("Full() = %q", full)
	}
}
