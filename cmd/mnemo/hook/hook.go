// Package hookcmder provides the hook command that host agents invoke on
// session lifecycle events.
package hookcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/consolidate"
	"github.com/mnemohq/mnemo/pkg/dotdir"
	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/lifecycle"
	"github.com/mnemohq/mnemo/pkg/llm"
	"github.com/mnemohq/mnemo/pkg/logger"
	"github.com/mnemohq/mnemo/pkg/memory"
	memoryutils "github.com/mnemohq/mnemo/pkg/memory/utils"
	"github.com/mnemohq/mnemo/pkg/queue"
	"github.com/mnemohq/mnemo/pkg/recall"
	"github.com/mnemohq/mnemo/pkg/score"
	"github.com/mnemohq/mnemo/pkg/topics"
)

const (
	eventSessionStart  = "session-start"
	eventBeforeTurn    = "before-turn"
	eventTurnEnd       = "turn-end"
	eventBeforeCompact = "before-compact"
	eventShutdown      = "shutdown"
)

type hookCommander struct {
	event     string
	configDir string
	debug     bool

	logger *slog.Logger
}

const hookLongDesc string = `Handle an agent lifecycle event.

The host agent invokes this command from its hook configuration, passing
the event payload as JSON on stdin. Any context block to inject into the
session is written to stdout; everything else goes to the log file under
the .mnemo/ directory.

Events:
  session-start     Inject project memories and topics at session open
  before-turn       Inject memories relevant to the pending user input
  turn-end          Capture extraction candidates from the finished turn
  before-compact    Consolidate and emit a session checkpoint
  shutdown          Consolidate and hand off to the background summarizer

This command always exits zero once the event payload parses. A memory
failure must never break the host session.

Example hook wiring:
  echo '{"session_id":"s1","user_text":"..."}' | mnemo hook before-turn`

const hookShortDesc string = "Handle an agent lifecycle event"

func NewHookCmd() *cobra.Command {
	cmder := &hookCommander{}

	cmd := &cobra.Command{
		Use:       "hook <event>",
		Short:     hookShortDesc,
		Long:      hookLongDesc,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{eventSessionStart, eventBeforeTurn, eventTurnEnd, eventBeforeCompact, eventShutdown},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.event = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	return cmd
}

func (c *hookCommander) run(stdin io.Reader, stdout io.Writer) error {
	switch c.event {
	case eventSessionStart, eventBeforeTurn, eventTurnEnd, eventBeforeCompact, eventShutdown:
	default:
		return fmt.Errorf("unknown hook event: %q", c.event)
	}

	var ev lifecycle.Event
	if err := json.NewDecoder(stdin).Decode(&ev); err != nil {
		return fmt.Errorf("decoding event payload: %w", err)
	}

	dotDir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving .mnemo directory: %w", err)
	}

	c.logger = hookLogger(dotDir, c.debug)

	// Past this point failures are logged and swallowed. The host session
	// must keep working when memory does not.
	orch, driver, err := c.wire(dotDir)
	if err != nil {
		c.logger.Error("hook wiring failed", "event", c.event, "error", err)
		return nil
	}
	defer driver.Close()

	ctx := context.Background()

	var block string
	switch c.event {
	case eventSessionStart:
		block = orch.SessionStart(ctx, ev)
	case eventBeforeTurn:
		block = orch.BeforeTurn(ctx, ev)
	case eventTurnEnd:
		orch.TurnEnd(ev)
	case eventBeforeCompact:
		block = orch.BeforeCompact(ctx, ev)
	case eventShutdown:
		orch.Shutdown(ctx, ev)
	}

	if block != "" {
		fmt.Fprintln(stdout, block)
	}

	return nil
}

// wire builds the full pipeline stack from configuration.
func (c *hookCommander) wire(dotDir string) (*lifecycle.Orchestrator, memory.Driver, error) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	driver, err := memoryutils.NewDriver(&memoryutils.NewDriverOpts{
		Config: cfg,
		DotDir: dotDir,
		Logger: c.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating memory driver: %w", err)
	}

	call, err := llm.NewCaller(llm.CallerConfig{
		Provider: cfg.Model.Provider,
		Model:    cfg.Model.Name,
		APIKey:   cfg.Model.APIKey,
		BaseURL:  cfg.Model.Target,
		Logger:   c.logger,
	})
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("creating model caller: %w", err)
	}

	store := topics.NewStore(dotDir)
	assembler := recall.NewAssembler(driver, store, cfg.Recall, c.logger)

	q := queue.NewManager(dotDir)
	extractor := extract.NewModelExtractor(call, c.logger)
	scorer := score.NewScorer(call, c.logger)
	pipeline := consolidate.NewPipeline(driver, extractor, scorer, q, cfg.Consolidate, dotDir, c.logger)

	return lifecycle.NewOrchestrator(cfg, driver, assembler, pipeline, q, dotDir, c.logger), driver, nil
}

// hookLogger writes to logs/hook.log in the dot directory. stdout belongs
// to the host session, so file logging is the only option here.
func hookLogger(dotDir string, debug bool) *slog.Logger {
	logsDir := filepath.Join(dotDir, "logs")
	if err := os.MkdirAll(logsDir, 0o700); err != nil {
		return logger.Nop()
	}

	f, err := os.OpenFile(filepath.Join(logsDir, "hook.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logger.Nop()
	}

	return logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
}
