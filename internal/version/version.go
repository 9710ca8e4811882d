package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

// Version information for the svir CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Parse returns Version as a semantic version.
func Parse() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", Version, err)
	}
	return v, nil
}

// Styled renders Version with colored components. A version that does not
// parse is returned as is.
func Styled(enabled bool) string {
	v, err := Parse()
	if err != nil {
		return Version
	}
	paint := func(c *color.Color, n uint64) string {
		cc := *c
		if enabled {
			cc.EnableColor()
		} else {
			cc.DisableColor()
		}
		return cc.Sprint(n)
	}
	out := paint(versionMajorColor, v.Major()) + "." + paint(versionMinorColor, v.Minor()) + "." + paint(versionPatchColor, v.Patch())
	if pre := v.Prerelease(); pre != "" {
		out += "-" + pre
	}
	if meta := v.Metadata(); meta != "" {
		out += "+" + meta
	}
	return out
}

// Summary is the one-line `svir version` output.
func Summary(enabled bool) string {
	var b strings.Builder
	b.WriteString("svir ")
	b.WriteString(Styled(enabled))
	if GitCommit != "" {
		fmt.Fprintf(&b, " (%s)", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, " built %s", BuildDate)
	}
	return b.String()
}
