package bridgemeta

import (
	"github.com/rs/zerolog"

	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// Option is a function that configures a Bridgemeta instance.
type Option func(*config) error

// WithExceptions configures an in-memory exception set.
func WithExceptions(exc *metadata.ExceptionSet) Option {
	return func(c *config) error {
		c.exceptions = exc
		return nil
	}
}

// WithExceptionsFile configures an exception set loaded from path.
// The file is read once, when the instance is created.
func WithExceptionsFile(path string) Option {
	return func(c *config) error {
		c.exceptionsPath = path
		return nil
	}
}

// WithOutput configures a path to write the merged record set to after a
// clean merge. A run with diagnostics writes nothing.
func WithOutput(path string) Option {
	return func(c *config) error {
		c.outputPath = path
		return nil
	}
}

// WithHeader configures a comment header written above the saved
// document.
func WithHeader(header string) Option {
	return func(c *config) error {
		c.header = header
		return nil
	}
}

// WithLogger configures the logger used for progress and diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
