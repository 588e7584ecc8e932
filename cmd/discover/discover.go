package discover

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/bjulian5/scmsource/internal/common"
	"github.com/bjulian5/scmsource/internal/discovery"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/ui"
)

// Command runs a discovery pass over the configured source.
type Command struct {
	// Flags
	Head  string
	Kinds []string
	View  string
	Save  bool

	Clients *common.Clients
}

func (c *Command) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "discover",
		Short: "Discover the buildable heads of the source",
		Long: `Discover the branches, pull requests, tags and releases of the source
that its traits select.

With --head, discovery stops at the first head with that name. With --save,
the result replaces the stored head table.

Example:
  scmsource discover
  scmsource discover --kind branch --kind tag --view tree
  scmsource discover --head PR-7
  scmsource discover --save`,
		PreRunE: func(cobraCmd *cobra.Command, args []string) error {
			var err error
			c.Clients, err = common.InitClientsFromFlags(cobraCmd)
			return err
		},
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return c.Run(cobraCmd.Context())
		},
	}

	command.Flags().StringVar(&c.Head, "head", "", "Find a single head by name")
	command.Flags().StringSliceVar(&c.Kinds, "kind", nil, "Only discover heads of these kinds (branch, pull-request, tag, release)")
	command.Flags().StringVar(&c.View, "view", "table", "Output view: table, tree or plain")
	command.Flags().BoolVar(&c.Save, "save", false, "Replace the stored head table with the result")

	parent.AddCommand(command)
}

func (c *Command) Run(ctx context.Context) error {
	view, err := ui.ParseViewMode(c.View)
	if err != nil {
		return err
	}
	if c.Save && (c.Head != "" || len(c.Kinds) > 0) {
		return errors.New("--save needs a full discovery pass; drop --head and --kind")
	}

	if c.Head != "" {
		rev, err := c.findHead(ctx)
		if err != nil {
			return err
		}
		ui.Print(ui.RenderHeads([]model.Revision{rev}, view))
		return nil
	}

	criteria, err := kindCriteria(c.Kinds)
	if err != nil {
		return err
	}
	revs, err := c.Clients.Discover(ctx, criteria)
	if err != nil {
		return fmt.Errorf("failed to discover heads: %w", err)
	}
	ui.Print(ui.RenderHeads(revs, view))

	if c.Save {
		table, err := c.Clients.SaveTable(revs)
		if err != nil {
			return fmt.Errorf("failed to save head table: %w", err)
		}
		ui.Successf("Saved %d heads at generation %d", len(table.Revisions), table.Generation)
	}
	return nil
}

func (c *Command) findHead(ctx context.Context) (model.Revision, error) {
	s := c.Clients.OpenSession()
	defer s.Close()

	named := discovery.NewNamed(c.Head)
	if _, err := s.ForEachCandidate(ctx, named.Criteria(), named); err != nil {
		return nil, fmt.Errorf("failed to discover %s: %w", c.Head, err)
	}
	rev := named.Revision()
	if rev == nil {
		return nil, fmt.Errorf("head %q not found in %s", c.Head, c.Clients.Source())
	}
	return rev, nil
}

// kindCriteria matches heads of the named kinds, or every head when names
// is empty.
func kindCriteria(names []string) (discovery.Criteria, error) {
	if len(names) == 0 {
		return discovery.All, nil
	}
	kinds := sets.New[model.HeadKind]()
	for _, name := range names {
		kind, err := model.ParseHeadKind(name)
		if err != nil {
			return nil, err
		}
		kinds.Insert(kind)
	}
	return discovery.CriteriaFunc(func(_ context.Context, head model.Head, _ model.Revision) (bool, error) {
		return kinds.Has(head.Kind()), nil
	}), nil
}
