package version

import (
	"strings"
	"testing"
)

func override(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = version, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestDefaultVersionParses(t *testing.T) {
	v, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if v.Prerelease() != "dev" {
		t.Errorf("prerelease = %q", v.Prerelease())
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name                  string
		version, commit, date string
		want                  string
	}{
		{"plain", "1.2.3", "", "", "svir 1.2.3"},
		{"prerelease", "0.1.0-dev", "", "", "svir 0.1.0-dev"},
		{"metadata", "1.0.0+ci.7", "abc123", "", "svir 1.0.0+ci.7 (abc123)"},
		{"full", "2.0.0", "abc123", "2024-01-15T10:30:00Z", "svir 2.0.0 (abc123) built 2024-01-15T10:30:00Z"},
		{"unparsable", "nightly", "", "", "svir nightly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override(t, tt.version, tt.commit, tt.date)
			if got := Summary(false); got != tt.want {
				t.Errorf("Summary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStyledColors(t *testing.T) {
	override(t, "1.2.3", "", "")
	if got := Styled(true); !strings.Contains(got, "\x1b[") || !strings.Contains(got, "3") {
		t.Errorf("Styled(true) = %q", got)
	}
	if _, err := Parse(); err != nil {
		t.Fatal(err)
	}
}
