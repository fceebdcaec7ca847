package mcp

import (
	"github.com/ka2n/getfavicon/api"
	"github.com/spf13/cobra"
)

// Command returns the MCP server command. newClient is called once when the
// server starts, after flags and configuration have been loaded.
func Command(newClient func() (*api.Client, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start a Model Context Protocol server on stdio exposing get_favicon and resolve_favicon_url tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return NewServer(client).Run()
		},
	}
}
