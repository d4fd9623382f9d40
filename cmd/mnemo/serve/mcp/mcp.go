// Package mcpcmder provides the MCP server cobra command.
package mcpcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnemohq/mnemo/api/mcp"
	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/dotdir"
	"github.com/mnemohq/mnemo/pkg/logger"
	memoryutils "github.com/mnemohq/mnemo/pkg/memory/utils"
)

type mcpCommander struct {
	listen    string
	configDir string
	debug     bool

	logger *slog.Logger
}

const mcpLongDesc string = `Run the MCP server over streamable HTTP.

Exposes the memory store to tool-calling agents through the Model Context
Protocol. The server provides memory_search and memory_store tools backed
by the same driver the lifecycle hooks use, so deliberate agent reads and
writes share one store with the automatic pipeline.

Example:
  mnemo serve mcp
  mnemo serve mcp --listen :9000`

const mcpShortDesc string = "Run the MCP server"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", ":8765", "Address for the MCP server to listen on")

	return cmd
}

func (c *mcpCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	dotDir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving .mnemo directory: %w", err)
	}

	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	driver, err := memoryutils.NewDriver(&memoryutils.NewDriverOpts{
		Config: cfg,
		DotDir: dotDir,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating memory driver: %w", err)
	}
	defer driver.Close()

	server, err := mcp.NewServer(mcp.Config{
		Driver: driver,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    c.listen,
		Handler: server.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		c.logger.Info("starting MCP server", "listen", c.listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
