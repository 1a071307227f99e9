// Package version provides centralized version information for gridctl.
// The CLI reports this version in its User-Agent header, in the unhandled
// failure banner, and via the --version flag, so that operators and the
// remote service can correlate behavior with a specific client release.
// All versions follow semantic versioning (semver) conventions.

package version

// Version holds the current gridctl CLI version.
// Format: major.minor.patch[-prerelease][+build]
const Version = "0.1.0-dev"

// SupportContact is printed alongside unhandled failures so users know where
// to send the session log when the CLI itself misbehaves.
const SupportContact = "https://github.com/gridhive-dev/gridctl/issues"
