package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/policy"
	"github.com/bjulian5/scmsource/internal/trust"
)

const fullConfig = `
type: github
server: https://git.example.com
owner: acme
repository: widgets
tokenEnv: ACME_TOKEN
storeDir: /var/lib/scmsource
traits:
  branches:
    mode: only-pr
  originPullRequests:
    strategies: [head]
  forkPullRequests:
    strategies: [merge, head]
    trust: everyone
  tags: true
  releases:
    includePreReleases: true
  webhook:
    mode: item
  notifications:
    context: ci/scmsource
  collaboratorGap: fail
`

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvToken, EnvStoreDir, EnvServer, "ACME_TOKEN", defaultTokenEnv} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACME_TOKEN", "secret")

	path := filepath.Join(t.TempDir(), "source.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.Source{ServerURL: "https://git.example.com", Owner: "acme", Repository: "widgets"}, cfg.Source())
	assert.Equal(t, "/var/lib/scmsource", cfg.StoreDir)
	assert.Equal(t, "secret", cfg.Token)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.True(t, p.WantBranches)
	assert.True(t, p.WantTags)
	assert.True(t, p.WantReleases)
	assert.Equal(t, policy.ReleaseOptions{IncludePreReleases: true}, p.Releases)
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyHead}, p.StrategiesFor(model.DefaultOrigin()))
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyMerge, model.StrategyHead}, p.StrategiesFor(model.ForkOrigin("alice/widgets")))
	assert.Equal(t, trust.Everyone, p.Trust[model.KindPullRequest])
	require.Len(t, p.Filters, 1)
	assert.Equal(t, "only-origin-pr-branches", p.Filters[0].Name())
	assert.Equal(t, policy.WebhookItem, p.Webhook)
	assert.Equal(t, "ci/scmsource", p.NotificationContext)
	assert.Equal(t, policy.GapFail, p.CollaboratorGap)
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte("owner: acme\nrepository: widgets\ntraits:\n  branches: {}\n  forkPullRequests: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, TypeGitHub, cfg.Type)
	assert.Equal(t, defaultServer, cfg.Server)
	assert.Equal(t, defaultStoreDir, cfg.StoreDir)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.False(t, p.WantTags)
	assert.False(t, p.WantOriginPRs)
	assert.Equal(t, []model.CheckoutStrategy{model.StrategyMerge}, p.StrategiesFor(model.ForkOrigin("alice/widgets")))
	assert.Equal(t, trust.Contributors, p.Trust[model.KindPullRequest])
	require.Len(t, p.Filters, 1)
	assert.Equal(t, "exclude-origin-pr-branches", p.Filters[0].Name())
	assert.Equal(t, policy.GapDegrade, p.CollaboratorGap)
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvServer, "https://ghe.example.com")
	t.Setenv(EnvStoreDir, "/tmp/heads")
	t.Setenv(EnvToken, "from-env")
	t.Setenv(defaultTokenEnv, "ignored")

	cfg, err := Parse([]byte("owner: acme\nrepository: widgets\nserver: https://git.example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com", cfg.Server)
	assert.Equal(t, "/tmp/heads", cfg.StoreDir)
	assert.Equal(t, "from-env", cfg.Token)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing owner", yaml: "repository: widgets\n"},
		{name: "unknown type", yaml: "type: svn\nowner: acme\nrepository: widgets\n"},
		{name: "git without path", yaml: "type: git\nowner: acme\nrepository: widgets\n"},
		{name: "unknown key", yaml: "owner: acme\nrepository: widgets\nbranch: main\n"},
		{name: "not yaml", yaml: "owner: [acme\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestTraits_Errors(t *testing.T) {
	tests := []struct {
		name   string
		traits TraitsConfig
	}{
		{name: "branch mode", traits: TraitsConfig{Branches: &BranchesConfig{Mode: "some"}}},
		{name: "strategy", traits: TraitsConfig{OriginPullRequests: &PullRequestsConfig{Strategies: []string{"rebase"}}}},
		{name: "trust", traits: TraitsConfig{ForkPullRequests: &PullRequestsConfig{Trust: "friends"}}},
		{name: "webhook", traits: TraitsConfig{Webhook: WebhookConfig{Mode: "sometimes"}}},
		{name: "collaborator gap", traits: TraitsConfig{CollaboratorGap: "explode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Discovery = tt.traits
			_, err := cfg.Traits()
			assert.Error(t, err)
		})
	}
}
