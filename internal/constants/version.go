package constants

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const ToolName = "imgmapon"

// Version is overridden at build time with -ldflags "-X ...constants.Version=".
var Version = "1.2.0"

// ToolVersion parses Version. A malformed build-time value falls back to 0.0.0.
func ToolVersion() *semver.Version {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return semver.MustParse("0.0.0")
	}
	return v
}

// UserAgent identifies the tool to geocoding services, which require it.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", ToolName, ToolVersion().String())
}

// CheckCompatible reports whether this build satisfies a version constraint
// such as ">= 1.1, < 2". An empty constraint always passes.
func CheckCompatible(constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	if ok, errs := c.Validate(ToolVersion()); !ok {
		if len(errs) > 0 {
			return fmt.Errorf("%s %s does not satisfy %q: %w", ToolName, ToolVersion(), constraint, errs[0])
		}
		return fmt.Errorf("%s %s does not satisfy %q", ToolName, ToolVersion(), constraint)
	}
	return nil
}
