// Package buildinfo carries build-time metadata separate from user
// configuration.
package buildinfo

import "github.com/google/uuid"

// UnknownValue is reported for metadata the build did not inject.
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
	GetInstanceID() string
}

// Context holds the metadata injected at startup through -ldflags.
type Context struct {
	Version   string
	BuildDate string

	// InstanceID identifies this process in error reports
	InstanceID string
}

// New creates a Context with a fresh instance ID.
func New(version, buildDate string) *Context {
	return &Context{
		Version:    version,
		BuildDate:  buildDate,
		InstanceID: uuid.NewString(),
	}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetInstanceID implements BuildInfo.GetInstanceID
func (c *Context) GetInstanceID() string {
	if c == nil || c.InstanceID == "" {
		return UnknownValue
	}
	return c.InstanceID
}
