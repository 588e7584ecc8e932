// Package config loads the description of one source from a YAML file.
//
// Values are resolved in this order, later ones winning:
//  1. Defaults
//  2. The config file
//  3. Environment variables (SCMSOURCE_*)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/trust"
)

const (
	TypeGitHub = "github"
	TypeGit    = "git"

	EnvToken    = "SCMSOURCE_TOKEN"
	EnvStoreDir = "SCMSOURCE_STORE_DIR"
	EnvServer   = "SCMSOURCE_SERVER"

	defaultServer   = "https://github.com"
	defaultTokenEnv = "GITHUB_TOKEN"
	defaultStoreDir = ".scmsource"
)

// Config describes one source.
type Config struct {
	// Type selects the remote: "github" (default) or "git".
	Type       string `yaml:"type"`
	Server     string `yaml:"server"`
	Owner      string `yaml:"owner"`
	Repository string `yaml:"repository"`
	// Path is the repository location for the "git" type.
	Path string `yaml:"path"`
	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `yaml:"tokenEnv"`
	StoreDir string `yaml:"storeDir"`

	Discovery TraitsConfig `yaml:"traits"`

	// Token is resolved from the environment, never read from the file.
	Token string `yaml:"-"`
}

// TraitsConfig selects what is discovered and how it is trusted. A nil
// section leaves that kind undiscovered.
type TraitsConfig struct {
	Branches           *BranchesConfig     `yaml:"branches"`
	OriginPullRequests *PullRequestsConfig `yaml:"originPullRequests"`
	ForkPullRequests   *PullRequestsConfig `yaml:"forkPullRequests"`
	Tags               bool                `yaml:"tags"`
	Releases           *ReleasesConfig     `yaml:"releases"`

	Webhook         WebhookConfig       `yaml:"webhook"`
	Notifications   NotificationsConfig `yaml:"notifications"`
	CollaboratorGap string              `yaml:"collaboratorGap"`
}

type BranchesConfig struct {
	// Mode is "exclude-pr" (default), "only-pr" or "all".
	Mode string `yaml:"mode"`
}

type PullRequestsConfig struct {
	// Strategies are "merge" and/or "head"; empty means merge.
	Strategies []string `yaml:"strategies"`
	// Trust is the fork authority: "nobody", "contributors" (default) or
	// "everyone". Ignored for origin pull requests.
	Trust string `yaml:"trust"`
}

type ReleasesConfig struct {
	IncludeDrafts        bool `yaml:"includeDrafts"`
	IncludePreReleases   bool `yaml:"includePreReleases"`
	MapArtifactsToAssets bool `yaml:"mapArtifactsToAssets"`
}

type WebhookConfig struct {
	Mode string `yaml:"mode"`
}

type NotificationsConfig struct {
	Disabled bool   `yaml:"disabled"`
	Context  string `yaml:"context"`
}

// Default returns a config with every default applied and nothing
// discovered.
func Default() *Config {
	return &Config{
		Type:     TypeGitHub,
		Server:   defaultServer,
		TokenEnv: defaultTokenEnv,
		StoreDir: defaultStoreDir,
	}
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and applies environment
// overrides. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server = v
	}
	if v := os.Getenv(EnvStoreDir); v != "" {
		c.StoreDir = v
	}
	c.Token = os.Getenv(EnvToken)
	if c.Token == "" && c.TokenEnv != "" {
		c.Token = os.Getenv(c.TokenEnv)
	}
}

// Validate checks that the config names a usable source.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeGitHub:
	case TypeGit:
		if c.Path == "" {
			return errors.New("path is required for a git source")
		}
	default:
		return fmt.Errorf("unknown source type %q", c.Type)
	}
	if c.Owner == "" || c.Repository == "" {
		return errors.New("owner and repository are required")
	}
	return nil
}

// Source returns the identity of the configured source.
func (c *Config) Source() model.Source {
	return model.Source{ServerURL: c.Server, Owner: c.Owner, Repository: c.Repository}
}

// Traits turns the traits block into policy traits.
func (c *Config) Traits() ([]policy.Trait, error) {
	t := c.Discovery
	var traits []policy.Trait

	if t.Branches != nil {
		mode := policy.BranchMode(strings.ToLower(t.Branches.Mode))
		switch mode {
		case "":
			mode = policy.BranchesExcludePRs
		case policy.BranchesExcludePRs, policy.BranchesOnlyPRs, policy.BranchesAll:
		default:
			return nil, fmt.Errorf("unknown branch mode %q", t.Branches.Mode)
		}
		traits = append(traits, policy.BranchDiscovery(mode))
	}

	if t.OriginPullRequests != nil {
		strategies, err := parseStrategies(t.OriginPullRequests.Strategies)
		if err != nil {
			return nil, fmt.Errorf("originPullRequests: %w", err)
		}
		traits = append(traits, policy.OriginPullRequestDiscovery(strategies...))
	}

	if t.ForkPullRequests != nil {
		strategies, err := parseStrategies(t.ForkPullRequests.Strategies)
		if err != nil {
			return nil, fmt.Errorf("forkPullRequests: %w", err)
		}
		authority, err := trust.ParseAuthority(t.ForkPullRequests.Trust)
		if err != nil {
			return nil, fmt.Errorf("forkPullRequests: %w", err)
		}
		traits = append(traits, policy.ForkPullRequestDiscovery(authority, strategies...))
	}

	if t.Tags {
		traits = append(traits, policy.TagDiscovery())
	}

	if t.Releases != nil {
		traits = append(traits, policy.ReleaseDiscovery(policy.ReleaseOptions{
			IncludeDrafts:        t.Releases.IncludeDrafts,
			IncludePreReleases:   t.Releases.IncludePreReleases,
			MapArtifactsToAssets: t.Releases.MapArtifactsToAssets,
		}))
	}

	if t.Webhook.Mode != "" {
		mode := policy.WebhookMode(strings.ToLower(t.Webhook.Mode))
		switch mode {
		case policy.WebhookDisabled, policy.WebhookItem, policy.WebhookSystem:
		default:
			return nil, fmt.Errorf("unknown webhook mode %q", t.Webhook.Mode)
		}
		traits = append(traits, policy.WebhookRegistration(mode))
	}

	if t.Notifications.Disabled {
		traits = append(traits, policy.DisableNotifications())
	}
	if t.Notifications.Context != "" {
		traits = append(traits, policy.NotificationContext(t.Notifications.Context))
	}

	switch policy.CollaboratorGap(strings.ToLower(t.CollaboratorGap)) {
	case "", policy.GapDegrade:
	case policy.GapFail:
		traits = append(traits, policy.FailOnCollaboratorGap())
	default:
		return nil, fmt.Errorf("unknown collaboratorGap %q", t.CollaboratorGap)
	}

	return traits, nil
}

// Policy builds the discovery policy described by the traits block.
func (c *Config) Policy() (*policy.Policy, error) {
	traits, err := c.Traits()
	if err != nil {
		return nil, err
	}
	return policy.Build(traits...)
}

func parseStrategies(names []string) ([]model.CheckoutStrategy, error) {
	var out []model.CheckoutStrategy
	for _, name := range names {
		s, err := model.ParseCheckoutStrategy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
