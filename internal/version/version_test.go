package version

import "testing"

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name                  string
		version, commit, date string
		want                  string
	}{
		{"dev build", "dev", "none", "unknown", "dev (development build)"},
		{"release", "v0.3.0", "a1b2c3d", "2026-10-18", "v0.3.0 (commit: a1b2c3d, built: 2026-10-18)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatVersion(tt.version, tt.commit, tt.date); got != tt.want {
				t.Errorf("FormatVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetVersionComponents(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "abc1234", "2026-01-02"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	v, c, d := GetVersionComponents()
	if v != "v1.2.3" || c != "abc1234" || d != "2026-01-02" {
		t.Errorf("GetVersionComponents() = %q, %q, %q", v, c, d)
	}
	if GetVersion() != "v1.2.3 (commit: abc1234, built: 2026-01-02)" {
		t.Errorf("GetVersion() = %q", GetVersion())
	}
}
