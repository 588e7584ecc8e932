package list

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjulian5/scmsource/internal/common"
	"github.com/bjulian5/scmsource/internal/ui"
)

// Command prints the stored head table.
type Command struct {
	View    string
	Clients *common.Clients
}

func (c *Command) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "list",
		Short: "List the stored heads of the source",
		Long: `List the head table last saved by "discover --save" and updated by
"event --apply". Nothing is fetched from the remote.

Example:
  scmsource list
  scmsource list --view tree`,
		PreRunE: func(cobraCmd *cobra.Command, args []string) error {
			var err error
			c.Clients, err = common.InitClientsFromFlags(cobraCmd)
			return err
		},
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return c.Run(cobraCmd.Context())
		},
	}

	command.Flags().StringVar(&c.View, "view", "table", "Output view: table, tree or plain")

	parent.AddCommand(command)
}

func (c *Command) Run(ctx context.Context) error {
	view, err := ui.ParseViewMode(c.View)
	if err != nil {
		return err
	}
	table, err := c.Clients.Store.Load(c.Clients.Source())
	if err != nil {
		return fmt.Errorf("failed to load head table: %w", err)
	}
	ui.Print(ui.RenderHeads(table.Sorted(), view))
	if view != ui.ViewPlain {
		ui.Print(ui.RenderTableSummary(table.Source, len(table.Revisions), table.Generation, table.UpdatedAt))
	}
	return nil
}
