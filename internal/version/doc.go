// Package version holds build metadata injected through ldflags and the
// cobra `version` subcommand shared by the catpoint binaries.
package version
