// Package storyplan provides the version information for storyplan.
package storyplan

// Version is the current version of storyplan.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
