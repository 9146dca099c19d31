// Package internal holds build metadata shared by the readaloud packages.
package internal

// Version is the readaloud release, overridden at build time with
// -ldflags "-X codeberg.org/snonux/readaloud/internal.Version=..."
var Version = "0.3.0-dev"
