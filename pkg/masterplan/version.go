// Package masterplan carries project-wide metadata shared by the CLI and
// build tooling.
package masterplan

// Version is the semantic version of the atlas tool, bumped on release.
const Version = "v0.3.0"
