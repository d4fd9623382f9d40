// Package summarizecmder provides the summarize command, the detached
// worker half of the background topic summarizer.
package summarizecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/dotdir"
	"github.com/mnemohq/mnemo/pkg/llm"
	"github.com/mnemohq/mnemo/pkg/logger"
	"github.com/mnemohq/mnemo/pkg/summarize"
	"github.com/mnemohq/mnemo/pkg/topics"
)

type summarizeCommander struct {
	sessionText string
	project     string
	slug        string
	repo        string
	logFile     string
	model       string

	configDir string
	debug     bool

	logger *slog.Logger
}

const summarizeLongDesc string = `Summarize a finished session into topic files.

Reads the session text from the given file, asks the configured model for
topic updates, and applies them to the topics directory under .mnemo/.
The session text file is deleted when the run finishes, whatever the
outcome.

The shutdown hook spawns this command as a detached process. It can also
be run by hand against a saved session text file for debugging.`

const summarizeShortDesc string = "Summarize a session into topic files"

func NewSummarizeCmd() *cobra.Command {
	cmder := &summarizeCommander{}

	cmd := &cobra.Command{
		Use:    "summarize",
		Short:  summarizeShortDesc,
		Long:   summarizeLongDesc,
		Hidden: true,
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

	cmd.Flags().StringVar(&cmder.sessionText, "session-text", "", "Path to the session text file (deleted after the run)")
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project name the session belongs to")
	cmd.Flags().StringVar(&cmder.slug, "slug", "", "Project slug used to prefix topic filenames")
	cmd.Flags().StringVar(&cmder.repo, "repo", "", "Repository name recorded on new topics")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Append logs to this file instead of stdout")
	cmd.Flags().StringVar(&cmder.model, "model", "", "Override the configured model name")
	_ = cmd.MarkFlagRequired("session-text")
	_ = cmd.MarkFlagRequired("slug")

	return cmd
}

func (c *summarizeCommander) run() error {
	c.logger = c.newLogger()

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

	model := cfg.Model.Name
	if c.model != "" {
		model = c.model
	}

	call, err := llm.NewCaller(llm.CallerConfig{
		Provider: cfg.Model.Provider,
		Model:    model,
		APIKey:   cfg.Model.APIKey,
		BaseURL:  cfg.Model.Target,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating model caller: %w", err)
	}

	summarizer := summarize.New(call, topics.NewStore(dotDir), c.logger)

	result, err := summarizer.Run(context.Background(), summarize.Input{
		SessionTextPath: c.sessionText,
		ProjectName:     c.project,
		ProjectSlug:     c.slug,
		RepoName:        c.repo,
	})
	if err != nil {
		c.logger.Error("summarizer run failed", "error", err)
		return err
	}

	c.logger.Info("summarizer finished",
		"updated", result.Updated,
		"created", result.Created,
		"skipped", result.Skipped,
	)
	return nil
}

func (c *summarizeCommander) newLogger() *slog.Logger {
	if c.logFile == "" {
		return logger.New(logger.WithDebug(c.debug))
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logger.Nop()
	}

	return logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
}
