// Package mnemocmder
package mnemocmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/mnemohq/mnemo/cmd/mnemo/config"
	hookcmder "github.com/mnemohq/mnemo/cmd/mnemo/hook"
	recallcmder "github.com/mnemohq/mnemo/cmd/mnemo/recall"
	servecmder "github.com/mnemohq/mnemo/cmd/mnemo/serve"
	summarizecmder "github.com/mnemohq/mnemo/cmd/mnemo/summarize"
	topicscmder "github.com/mnemohq/mnemo/cmd/mnemo/topics"
	versioncmder "github.com/mnemohq/mnemo/cmd/version"
)

const mnemoLongDesc string = `Mnemo is persistent session memory for coding agents.

It watches agent sessions through lifecycle hooks, extracts durable
knowledge, and injects relevant memories back into future sessions.

Common commands:
  mnemo hook <event>     Handle an agent lifecycle event (wired by the host)
  mnemo recall <query>   Search stored memories from the terminal
  mnemo serve            Expose memory over MCP for tool-calling agents
  mnemo config           Manage persistent mnemo configuration`

const mnemoShortDesc string = "Mnemo - Session Memory for Agents"

func NewMnemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mnemo",
		Short: mnemoShortDesc,
		Long:  mnemoLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .mnemo directory location")

	// Add subcommands
	cmd.AddCommand(hookcmder.NewHookCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(summarizecmder.NewSummarizeCmd())
	cmd.AddCommand(topicscmder.NewTopicsCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
