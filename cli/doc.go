// Package cli implements the command-line interface for getfavicon.
//
// The cli package provides:
// - Command-line argument parsing and validation
// - Merging of flags with the configuration file and environment
// - Terminal output for resolved URLs and image layers
// - The MCP server subcommand
package cli
