package models

import "strings"

// SchemaVersion tags persisted samples and predictions. Records written under a
// different major version are regenerated on next access.
const SchemaVersion = "1.2.0"

// MajorVersion returns the major component of a dotted version string.
func MajorVersion(version string) string {
	major, _, _ := strings.Cut(version, ".")
	return major
}

// IsCompatibleVersion reports whether version shares the current major version.
func IsCompatibleVersion(version string) bool {
	return MajorVersion(version) == MajorVersion(SchemaVersion)
}
