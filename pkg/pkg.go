// Package pkg holds the identity of the eager module.
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the module embedded at build time.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command name. It appears in help text and in the
	// default configuration and cache paths.
	Name = "eager"
	// Description is a short summary used in help output.
	Description = "Staged eager macro expansion"
)
