// Package mcp implements the Model Context Protocol server for getfavicon.
//
// The mcp package provides:
// - MCP stdio server wiring
// - Tools resolving and downloading favicons for agents
package mcp
