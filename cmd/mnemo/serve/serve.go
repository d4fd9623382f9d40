// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"github.com/spf13/cobra"

	mcpcmder "github.com/mnemohq/mnemo/cmd/mnemo/serve/mcp"
)

const serveLongDesc string = `Run mnemo services.

Use subcommands to run individual services:
  mnemo serve mcp      Run the MCP server over streamable HTTP`

const serveShortDesc string = "Run mnemo services"

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
	}

	cmd.AddCommand(mcpcmder.NewMCPCmd())

	return cmd
}
