package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bjulian5/scmsource/internal/model"
	"github.com/bjulian5/scmsource/internal/trust"
)

var (
	mainRev = model.NewBranchRevision("main", "0123456789abcdef")
	tagRev  = model.TagRevision{
		Tag:  model.TagHead{TagName: "v1.0.0", Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()},
		Hash: "fedcba9876543210",
	}
	releaseRev = model.ReleaseRevision{Release: model.ReleaseHead{TagName: "v1.0.0", ReleaseID: 10}, Hash: "fedcba9876543210"}
	forkRev    = model.PullRequestRevision{
		PullRequest: model.PullRequestHead{
			DisplayName:      "PR-7",
			ID:               7,
			Target:           model.BranchHead{BranchName: "main"},
			Origin:           model.ForkOrigin("alice/widgets"),
			OriginOwner:      "alice",
			OriginRepo:       "widgets",
			OriginBranchName: "fix",
		},
		Target: mainRev,
		Origin: model.NewBranchRevision("fix", "aaaaaaaaaaaa"),
	}
)

func TestDetail(t *testing.T) {
	tests := []struct {
		name string
		rev  model.Revision
		want string
	}{
		{name: "branch", rev: mainRev, want: ""},
		{name: "fork pull request", rev: forkRev, want: "alice/widgets:fix → main (merge)"},
		{name: "tag", rev: tagRev, want: "2024-03-01 12:00:00Z"},
		{name: "tag without time", rev: model.TagRevision{Tag: model.TagHead{TagName: "v0"}}, want: "unknown time"},
		{name: "release", rev: releaseRev, want: "tag v1.0.0, id 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detail(tt.rev))
		})
	}
}

func TestShortHashAndTruncate(t *testing.T) {
	assert.Equal(t, "0123456", ShortHash("0123456789abcdef"))
	assert.Equal(t, "abc", ShortHash("abc"))
	assert.Equal(t, "feature", Truncate("feature", 10))
	assert.Equal(t, "featur...", Truncate("feature/long-name", 9))
	assert.Empty(t, Truncate("feature", 0))
}

func TestRenderHeadsPlain(t *testing.T) {
	got := RenderHeads([]model.Revision{mainRev, forkRev, tagRev}, ViewPlain)
	assert.Equal(t,
		"branch\tmain\t0123456789abcdef\n"+
			"pull-request\tPR-7\taaaaaaaaaaaa\n"+
			"tag\tv1.0.0\tfedcba9876543210\n",
		got)
}

func TestRenderHeads_Views(t *testing.T) {
	revs := []model.Revision{mainRev, forkRev, tagRev, releaseRev}

	table := RenderHeads(revs, ViewTable)
	for _, want := range []string{"KIND", "main", "0123456", "PR-7", "release-v1.0.0"} {
		assert.Contains(t, table, want)
	}

	tree := RenderHeads(revs, ViewTree)
	for _, want := range []string{"branch (1)", "pull-request (1)", "tag (1)", "release (1)", "╰─ main"} {
		assert.Contains(t, tree, want)
	}

	assert.Contains(t, RenderHeads(nil, ViewTable), "No heads found")
}

func TestRenderDelta(t *testing.T) {
	d := model.Delta{}
	d.Put(model.Created, mainRev)
	d.Put(model.Updated, tagRev)
	d.Remove(forkRev.PullRequest)

	lines := strings.Split(RenderDelta(d), "\n")
	assert.Equal(t, []string{
		"+ branch main 0123456",
		"- pull-request PR-7",
		"~ tag v1.0.0 fedcba9",
		"+ 1 created  ~ 1 updated  - 1 removed",
	}, lines)

	assert.Equal(t, "No head changes", RenderDelta(model.Delta{}))
}

func TestRenderCheckout(t *testing.T) {
	trusted := RenderCheckout(trust.Checkout{Nominal: mainRev, Trusted: mainRev})
	assert.Contains(t, trusted, "(trusted)")

	untrusted := RenderCheckout(trust.Checkout{Nominal: forkRev, Trusted: forkRev.Target, Untrusted: true})
	assert.Contains(t, untrusted, "aaaaaaaaaaaa")
	assert.Contains(t, untrusted, "untrusted, using main")
}

func TestRenderTableSummary(t *testing.T) {
	src := model.Source{ServerURL: "https://git.example.com", Owner: "acme", Repository: "widgets"}
	got := RenderTableSummary(src, 1, 3, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Contains(t, got, "1 head of")
	assert.Contains(t, got, "generation 3")
	assert.Contains(t, got, "2024-01-02 03:04:05Z")
}

func TestFormatHeadFinderLine(t *testing.T) {
	assert.Equal(t, "pull-request PR-7  aaaaaaa  alice/widgets:fix → main (merge)", FormatHeadFinderLine(forkRev))
	assert.Contains(t, FormatHeadPreview(forkRev), "Origin: alice/widgets")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	errOut := ErrOut
	ErrOut = &buf
	t.Cleanup(func() { ErrOut = errOut })

	Error(errors.New("boom"))
	assert.Equal(t, "✗ boom\n", buf.String())
}
