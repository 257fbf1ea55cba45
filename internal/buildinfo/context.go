// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

import "fmt"

// Context contains build-time metadata that is not user-configurable.
// Values are injected with -ldflags at build time.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// New returns build metadata, substituting placeholders for empty values.
func New(version, buildDate string) *Context {
	if version == "" {
		version = "dev"
	}
	if buildDate == "" {
		buildDate = "unknown"
	}
	return &Context{Version: version, BuildDate: buildDate}
}

// String formats the metadata for --version output.
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.Version, c.BuildDate)
}

// Release names the build for error reporting.
func (c *Context) Release() string {
	return "syllable-catalog@" + c.Version
}
