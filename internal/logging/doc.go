// Package logging builds the slog loggers used by the command line tools and
// the MCP server. Records go to stderr unless another writer is given.
package logging
