package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/config"
	"github.com/bjulian5/scmsource/internal/discovery"
	"github.com/bjulian5/scmsource/internal/event"
	"github.com/bjulian5/scmsource/internal/gh"
	"github.com/bjulian5/scmsource/internal/git"
	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/remote"
	"github.com/bjulian5/scmsource/internal/store"
)

// maxApplyAttempts bounds the reload-and-retry loop of ApplyDelta.
const maxApplyAttempts = 5

// Clients are the collaborators every command needs for one source.
type Clients struct {
	Config *config.Config
	Remote remote.Client
	Policy *policy.Policy
	Store  *store.Store
}

// InitClients loads the config at path and builds the remote client,
// policy and store it describes.
// Returns an error that is suitable for use in PreRunE hooks
func InitClients(path string) (*Clients, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	client, err := NewRemote(cfg)
	if err != nil {
		return nil, err
	}
	return NewClients(cfg, client)
}

// NewClients builds the policy and store of cfg around an existing remote
// client.
func NewClients(cfg *config.Config, client remote.Client) (*Clients, error) {
	p, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("invalid traits: %w", err)
	}
	return &Clients{
		Config: cfg,
		Remote: client,
		Policy: p,
		Store:  store.New(cfg.StoreDir),
	}, nil
}

// NewRemote creates the remote client selected by cfg.Type.
func NewRemote(cfg *config.Config) (remote.Client, error) {
	switch cfg.Type {
	case config.TypeGit:
		client, err := git.Open(cfg.Path, cfg.Owner, cfg.Repository)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.TypeGitHub:
		if cfg.Token == "" {
			klog.V(2).Infof("No token in $%s or $%s, making anonymous requests", config.EnvToken, cfg.TokenEnv)
		}
		client, err := gh.NewClient(cfg.Server, cfg.Token)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Type)
}

// Source returns the identity of the configured source.
func (c *Clients) Source() model.Source {
	return c.Config.Source()
}

// OpenSession opens a discovery session over the configured source. The
// caller closes it.
func (c *Clients) OpenSession() *discovery.Session {
	return discovery.Open(c.Policy, c.Source(), c.Remote)
}

// NewTranslator creates an event translator for the configured source.
func (c *Clients) NewTranslator(opts ...event.Option) *event.Translator {
	return event.NewTranslator(c.Source(), c.Policy, c.Remote, opts...)
}

// Discover runs one full discovery pass and returns every candidate in
// kind then name order.
func (c *Clients) Discover(ctx context.Context, criteria discovery.Criteria) ([]model.Revision, error) {
	s := c.OpenSession()
	defer s.Close()

	collector := discovery.NewCollector()
	if _, err := s.ForEachCandidate(ctx, criteria, collector); err != nil {
		return nil, err
	}
	return collector.Sorted(), nil
}

// SaveTable replaces the stored head table with revs.
func (c *Clients) SaveTable(revs []model.Revision) (*store.Table, error) {
	for attempt := 1; ; attempt++ {
		current, err := c.Store.Load(c.Source())
		if err != nil {
			return nil, err
		}
		table, err := c.Store.Replace(c.Source(), revs, current.Generation)
		if err == nil || !errors.Is(err, store.ErrGenerationConflict) || attempt == maxApplyAttempts {
			return table, err
		}
		klog.V(2).Infof("Head table of %s changed while saving, retrying: %v", c.Source(), err)
	}
}

// ApplyDelta applies d to the stored head table, reloading and retrying
// when another writer got there first.
func (c *Clients) ApplyDelta(d model.Delta) (*store.Table, error) {
	for attempt := 1; ; attempt++ {
		current, err := c.Store.Load(c.Source())
		if err != nil {
			return nil, err
		}
		table, err := c.Store.Apply(c.Source(), d, current.Generation)
		if err == nil || !errors.Is(err, store.ErrGenerationConflict) || attempt == maxApplyAttempts {
			return table, err
		}
		klog.V(2).Infof("Head table of %s changed while applying, retrying: %v", c.Source(), err)
	}
}

// ConfigFlag is the persistent flag naming the source config file.
const ConfigFlag = "config"

// InitClientsFromFlags is InitClients with the path taken from the
// --config flag of cmd.
func InitClientsFromFlags(cmd *cobra.Command) (*Clients, error) {
	path, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		return nil, err
	}
	return InitClients(path)
}
