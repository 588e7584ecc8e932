package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjulian5/scmsource/internal/model"
)

var src = model.Source{ServerURL: "https://git.example.com:8443", Owner: "Acme", Repository: "Widgets"}

func revisions() []model.Revision {
	return []model.Revision{
		model.NewBranchRevision("main", "m1"),
		model.TagRevision{Tag: model.TagHead{TagName: "v1", Timestamp: 1700000000000}, Hash: "t1"},
		model.ReleaseRevision{Release: model.ReleaseHead{TagName: "v1", ReleaseID: 4}, Hash: "t1"},
		model.PullRequestRevision{
			PullRequest: model.PullRequestHead{
				DisplayName:      "PR-7-head",
				ID:               7,
				Target:           model.BranchHead{BranchName: "main"},
				Strategy:         model.StrategyHead,
				Origin:           model.ForkOrigin("alice/widgets"),
				OriginOwner:      "alice",
				OriginRepo:       "widgets",
				OriginBranchName: "fix",
			},
			Target: model.NewBranchRevision("main", "m1"),
			Origin: model.NewBranchRevision("fix", "a1"),
		},
		model.PullRequestRevision{
			PullRequest: model.PullRequestHead{
				DisplayName:      "PR-1",
				ID:               1,
				Target:           model.BranchHead{BranchName: "main"},
				Origin:           model.DefaultOrigin(),
				OriginOwner:      "acme",
				OriginRepo:       "widgets",
				OriginBranchName: "feature",
			},
			Target: model.NewBranchRevision("main", "m1"),
			Origin: model.NewBranchRevision("feature", "f1"),
		},
	}
}

func newTestStore(t *testing.T) *Store {
	s := New(t.TempDir())
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestLoad_Empty(t *testing.T) {
	s := newTestStore(t)
	table, err := s.Load(src)
	require.NoError(t, err)
	assert.Zero(t, table.Generation)
	assert.Empty(t, table.Revisions)
}

func TestReplace_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	saved, err := s.Replace(src, revisions(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Generation)

	loaded, err := New(s.Dir()).Load(src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Generation)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(loaded.UpdatedAt))
	if diff := cmp.Diff(saved.Sorted(), loaded.Sorted(), cmp.AllowUnexported(model.Origin{})); diff != "" {
		t.Errorf("head table changed on disk (-saved +loaded):\n%s", diff)
	}

	_, err = os.Stat(filepath.Join(s.Dir(), "git.example.com_8443", "acme", "widgets.json"))
	assert.NoError(t, err, "one file per source identity")
}

func TestApply(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Replace(src, revisions(), 0)
	require.NoError(t, err)

	d := model.Delta{}
	d.Put(model.Updated, model.NewBranchRevision("main", "m2"))
	d.Put(model.Created, model.NewBranchRevision("topic", "t9"))
	d.Remove(model.TagHead{TagName: "v1"})

	table, err := s.Apply(src, d, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), table.Generation)

	var names []string
	for _, rev := range table.Sorted() {
		names = append(names, rev.Head().Key().String())
	}
	assert.Equal(t, []string{
		"branch:main",
		"branch:topic",
		"pull-request:PR-1",
		"pull-request:PR-7-head",
		"release:release-v1",
	}, names)
	assert.Equal(t, "m2", model.Hash(table.Revisions[model.HeadKey{Kind: model.KindBranch, Name: "main"}]))
}

func TestApply_GenerationConflict(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Replace(src, revisions(), 0)
	require.NoError(t, err)

	d := model.Delta{}
	d.Put(model.Updated, model.NewBranchRevision("main", "m2"))

	_, err = s.Apply(src, d, 0)
	assert.ErrorIs(t, err, ErrGenerationConflict)

	table, err := s.Load(src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), table.Generation)
	assert.Equal(t, "m1", model.Hash(table.Revisions[model.HeadKey{Kind: model.KindBranch, Name: "main"}]))
}

func TestApply_ConcurrentWritersOneWins(t *testing.T) {
	s := newTestStore(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := model.Delta{}
			d.Put(model.Created, model.NewBranchRevision("main", "m1"))
			_, err := s.Apply(src, d, 0)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, ErrGenerationConflict)
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 9, conflicts)
}

func TestLoad_Corrupt(t *testing.T) {
	s := newTestStore(t)
	path := s.path(src)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := s.Load(src)
	assert.Error(t, err)
}
