package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config

	// MCP stdio transport; nil when MCP is not served.
	mcpIn  io.Reader
	mcpOut io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCP serves MCP over in/out alongside the HTTP server. Logs move to
// stderr because out carries the protocol.
func WithMCP(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.mcpIn = in
		a.mcpOut = out
	}
}
