package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjulian5/scmsource/internal/common"
	"github.com/bjulian5/scmsource/internal/discovery"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/ui"
)

// Command resolves what may be built for one head.
type Command struct {
	// Flags
	Head string

	Clients *common.Clients
	// Select picks a revision when no head is named.
	Select func([]model.Revision) (model.Revision, error)
}

func (c *Command) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "trust",
		Short: "Show which revision of a head may be built with the source's privileges",
		Long: `Resolve the checkout of a head: the revision under test and the revision
whose pipeline definitions may be trusted. Fork pull requests from untrusted
authors fall back to their target branch.

Without --head, a fuzzy finder lists every discovered head.

Example:
  scmsource trust --head PR-7
  scmsource trust`,
		PreRunE: func(cobraCmd *cobra.Command, args []string) error {
			var err error
			c.Clients, err = common.InitClientsFromFlags(cobraCmd)
			return err
		},
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return c.Run(cobraCmd.Context())
		},
	}

	command.Flags().StringVar(&c.Head, "head", "", "Name of the head to resolve")

	parent.AddCommand(command)
}

func (c *Command) Run(ctx context.Context) error {
	s := c.Clients.OpenSession()
	defer s.Close()

	rev, err := c.pick(ctx, s)
	if err != nil || rev == nil {
		return err
	}

	checkout, err := s.Resolve(ctx, rev)
	if err != nil {
		return err
	}
	ui.Print(ui.RenderCheckout(checkout))
	return nil
}

func (c *Command) pick(ctx context.Context, s *discovery.Session) (model.Revision, error) {
	if c.Head != "" {
		named := discovery.NewNamed(c.Head)
		if _, err := s.ForEachCandidate(ctx, named.Criteria(), named); err != nil {
			return nil, fmt.Errorf("failed to discover %s: %w", c.Head, err)
		}
		if named.Revision() == nil {
			return nil, fmt.Errorf("head %q not found in %s", c.Head, s.Source())
		}
		return named.Revision(), nil
	}

	selectFn := c.Select
	if selectFn == nil {
		if !ui.IsInteractive() {
			return nil, errors.New("--head is required when not running in a terminal")
		}
		selectFn = ui.SelectHead
	}

	collector := discovery.NewCollector()
	if _, err := s.ForEachCandidate(ctx, nil, collector); err != nil {
		return nil, fmt.Errorf("failed to discover heads: %w", err)
	}
	revs := collector.Sorted()
	if len(revs) == 0 {
		ui.Print(ui.RenderNoHeadsMessage())
		return nil, nil
	}
	rev, err := selectFn(revs)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		ui.Print(ui.Dim("Cancelled"))
	}
	return rev, nil
}
