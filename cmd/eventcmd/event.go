package eventcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bjulian5/scmsource/internal/common"
	"github.com/bjulian5/scmsource/internal/event"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/ui"
)

// Command translates one webhook delivery into a head delta.
type Command struct {
	// Flags
	Kind    string
	Payload string
	Apply   bool

	Clients *common.Clients
	// Stdin is read when Payload is "-".
	Stdin io.Reader
}

func (c *Command) Register(parent *cobra.Command) {
	command := &cobra.Command{
		Use:   "event",
		Short: "Translate a webhook payload into head changes",
		Long: `Translate a webhook payload into the heads it creates, updates or
removes, without listing the repository.

The payload is read from the --payload file, or from stdin when it is "-".
With --apply, the changes are applied to the stored head table.

Example:
  scmsource event --kind push --payload push.json
  cat pr.json | scmsource event --kind pull_request --payload - --apply`,
		PreRunE: func(cobraCmd *cobra.Command, args []string) error {
			var err error
			c.Clients, err = common.InitClientsFromFlags(cobraCmd)
			return err
		},
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			c.Stdin = cobraCmd.InOrStdin()
			return c.Run(cobraCmd.Context())
		},
	}

	command.Flags().StringVar(&c.Kind, "kind", "", "Event kind: create, delete, push, pull_request, release or repository")
	command.Flags().StringVar(&c.Payload, "payload", "-", "Payload file, or - for stdin")
	command.Flags().BoolVar(&c.Apply, "apply", false, "Apply the changes to the stored head table")
	_ = command.MarkFlagRequired("kind")

	parent.AddCommand(command)
}

func (c *Command) Run(ctx context.Context) error {
	kind := event.Kind(c.Kind)
	if !slices.Contains(event.Kinds, kind) {
		return fmt.Errorf("%w: %q", event.ErrUnknownKind, c.Kind)
	}

	body, err := c.readPayload()
	if err != nil {
		return err
	}

	opts := []event.Option{event.WithSourceListener(event.SourceListenerFunc(
		func(_ context.Context, src model.Source, ev event.RepositoryEvent) {
			ui.Infof("Repository %s was %s", src, ev.Action)
		},
	))}
	if len(c.Clients.Policy.Filters) > 0 {
		s := c.Clients.OpenSession()
		defer s.Close()
		opts = append(opts, event.WithBranchFilter(s))
	}

	translator := c.Clients.NewTranslator(opts...)
	delta, err := translator.Handle(ctx, kind, body)
	if err != nil {
		return err
	}
	ui.Print(ui.RenderDelta(delta))

	if c.Apply && len(delta) > 0 {
		table, err := c.Clients.ApplyDelta(delta)
		if err != nil {
			return fmt.Errorf("failed to apply head changes: %w", err)
		}
		ui.Successf("Applied %d changes, head table at generation %d", len(delta), table.Generation)
	}
	return nil
}

func (c *Command) readPayload() ([]byte, error) {
	if c.Payload == "" || c.Payload == "-" {
		in := c.Stdin
		if in == nil {
			in = os.Stdin
		}
		body, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(c.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return body, nil
}
