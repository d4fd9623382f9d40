// Package topicscmder provides the topics command for inspecting the
// summarizer's per-project topic files.
package topicscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemohq/mnemo/pkg/cliui"
	"github.com/mnemohq/mnemo/pkg/dotdir"
	"github.com/mnemohq/mnemo/pkg/topics"
)

type topicsCommander struct {
	slug     string
	filename string

	configDir string
}

const topicsLongDesc string = `Inspect the topic files the background summarizer maintains.

Without a filename, lists all topic files for the given project slug,
newest first. With a filename, renders that topic file as markdown.

Example:
  mnemo topics mnemo
  mnemo topics mnemo mnemo-sqlite-migrations.md`

const topicsShortDesc string = "Inspect summarizer topic files"

func NewTopicsCmd() *cobra.Command {
	cmder := &topicsCommander{}

	cmd := &cobra.Command{
		Use:   "topics <slug> [filename]",
		Short: topicsShortDesc,
		Long:  topicsLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.slug = args[0]
			if len(args) > 1 {
				cmder.filename = args[1]
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			return cmder.run()
		},
	}

	return cmd
}

func (c *topicsCommander) run() error {
	dotDir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving .mnemo directory: %w", err)
	}

	store := topics.NewStore(dotDir)

	if c.filename != "" {
		return c.show(store)
	}
	return c.list(store)
}

func (c *topicsCommander) list(store *topics.Store) error {
	ts, err := store.List(c.slug)
	if err != nil {
		return fmt.Errorf("listing topics: %w", err)
	}

	if len(ts) == 0 {
		fmt.Printf("No topics found for %q.\n", c.slug)
		return nil
	}

	fmt.Println()
	for _, t := range ts {
		title := t.Title
		if title == "" {
			title = t.Filename
		}
		fmt.Printf("  %s  %s\n",
			cliui.KeyStyle.Render(title),
			cliui.DimStyle.Render(t.Filename),
		)
		if t.Updated != "" {
			fmt.Printf("  %s\n", cliui.DimStyle.Render("updated "+t.Updated))
		}
		if len(t.Tags) > 0 {
			fmt.Printf("  %s\n", cliui.TagStyle.Render("["+strings.Join(t.Tags, ", ")+"]"))
		}
		fmt.Println()
	}

	return nil
}

func (c *topicsCommander) show(store *topics.Store) error {
	t, err := store.Read(topics.EnsurePrefix(c.filename, c.slug))
	if err != nil {
		return fmt.Errorf("reading topic: %w", err)
	}

	md := t.Body
	if t.Title != "" {
		md = "# " + t.Title + "\n\n" + md
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		// Fall back to the raw markdown on render failure.
		fmt.Println(md)
		return nil
	}

	fmt.Print(rendered)
	return nil
}
