package tasks

import (
	"github.com/Masterminds/semver/v3"
)

// Version is the plugin version. It follows semantic versioning.
const Version = "0.1.0"

var pluginVersion = semver.MustParse(Version)

// CheckVersion reports ErrIncompatibleVersion unless the plugin version
// satisfies constraint, e.g. "^0.1" or ">= 0.1.0, < 1.0.0". An empty
// constraint accepts any version.
func CheckVersion(constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return ErrIncompatibleVersion.MsgErr("invalid version constraint "+constraint, err)
	}
	if !c.Check(pluginVersion) {
		return ErrIncompatibleVersion.Msg("plugin version " + Version + " does not satisfy " + constraint)
	}
	return nil
}
