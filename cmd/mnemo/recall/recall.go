// Package recallcmder provides the recall command for searching stored
// memories from the terminal.
package recallcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mnemohq/mnemo/pkg/cliui"
	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/dotdir"
	"github.com/mnemohq/mnemo/pkg/logger"
	"github.com/mnemohq/mnemo/pkg/memory"
	memoryutils "github.com/mnemohq/mnemo/pkg/memory/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	contentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type recallCommander struct {
	query   string
	topK    int
	project string
	quiet   bool

	configDir string
	debug     bool
}

const recallLongDesc string = `Search stored memories.

Runs a semantic search over the memory store and prints the most relevant
records. This is the same retrieval the lifecycle hooks use to build
context blocks, exposed for inspection from the terminal.

Use --project to scope results to one project. Use --quiet to output only
memory ids, one per line, for piping into other tools.

Example:
  mnemo recall "how did we fix the migration deadlock"
  mnemo recall "API pagination convention" --project mnemo --top 10
  mnemo recall "sqlite busy timeout" --quiet`

const recallShortDesc string = "Search stored memories"

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Scope results to a project by name")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory ids, one per line (for piping)")

	return cmd
}

func (c *recallCommander) run() error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

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
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating memory driver: %w", err)
	}
	defer driver.Close()

	ctx := context.Background()

	projectID := ""
	if c.project != "" {
		projectID, err = driver.EnsureProject(ctx, c.project, "")
		if err != nil {
			return fmt.Errorf("resolving project %q: %w", c.project, err)
		}
	}

	var results []memory.Result
	search := func() error {
		var serr error
		results, serr = driver.Search(ctx, c.query, c.topK, projectID)
		return serr
	}
	if c.quiet {
		err = search()
	} else {
		err = cliui.Step(os.Stdout, "searching memories", search)
	}
	if err != nil {
		return fmt.Errorf("searching memories: %w", err)
	}

	if len(results) == 0 {
		if !c.quiet {
			fmt.Println("No memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, r := range results {
			fmt.Println(r.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Memories for:"),
		titleStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, r := range results {
		fmt.Printf("  %s  %s  %s\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			scoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
			titleStyle.Render(r.Title),
		)

		content := strings.ReplaceAll(r.Content, "\n", " ")
		if len(content) > 160 {
			content = content[:157] + "..."
		}
		fmt.Printf("  %s\n", contentStyle.Render(content))

		if len(r.Tags) > 0 {
			fmt.Printf("  %s\n", tagStyle.Render("["+strings.Join(r.Tags, ", ")+"]"))
		}
		fmt.Printf("  %s\n\n", dimStyle.Render(r.ID))
	}

	return nil
}
