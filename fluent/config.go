package fluent

import (
	"slices"

	"github.com/metalagman/adkfluent/middleware"
)

const (
	defaultAppName = "adkfluent"
	defaultUserID  = "adkfluent-user"
)

// RunConfig carries execution settings for compiling a builder into an
// App. It is a value type and treated as immutable: derive a new
// configuration with the With methods instead of mutating one that has
// already been passed to Compile. The zero value is a valid default
// configuration with no global middleware.
type RunConfig struct {
	// AppName identifies the application towards the ADK runner and
	// the middleware adapter. Empty means "adkfluent".
	AppName string
	// UserID identifies the user for created sessions. Empty means
	// "adkfluent-user".
	UserID string

	units []middleware.Middleware
}

// WithMiddleware returns a copy of the configuration whose global
// middleware sequence is replaced by units, in the given order.
func (c RunConfig) WithMiddleware(units ...middleware.Middleware) RunConfig {
	c.units = slices.Clone(units)
	return c
}

// Middleware returns a copy of the global middleware sequence.
func (c RunConfig) Middleware() []middleware.Middleware {
	return slices.Clone(c.units)
}

func (c RunConfig) appName() string {
	if c.AppName == "" {
		return defaultAppName
	}
	return c.AppName
}

func (c RunConfig) userID() string {
	if c.UserID == "" {
		return defaultUserID
	}
	return c.UserID
}
