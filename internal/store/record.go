package store

import (
	"fmt"

	"github.com/bjulian5/scmsource/internal/model"
)

// record is the on-disk form of one head and its revision.
type record struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Hash string `json:"hash"`

	Timestamp int64 `json:"timestamp,omitempty"`

	TagName   string `json:"tag_name,omitempty"`
	ReleaseID int64  `json:"release_id,omitempty"`

	PullRequest *pullRequestRecord `json:"pull_request,omitempty"`
}

type pullRequestRecord struct {
	ID           int64  `json:"id"`
	Strategy     string `json:"strategy"`
	OriginOwner  string `json:"origin_owner"`
	OriginRepo   string `json:"origin_repo"`
	OriginBranch string `json:"origin_branch"`
	TargetBranch string `json:"target_branch"`
	TargetHash   string `json:"target_hash"`
}

func toRecord(rev model.Revision) (record, error) {
	head := rev.Head()
	r := record{Kind: head.Kind().String(), Name: head.Name(), Hash: model.Hash(rev)}
	switch v := rev.(type) {
	case model.BranchRevision:
	case model.TagRevision:
		r.Timestamp = v.Tag.Timestamp
	case model.ReleaseRevision:
		r.TagName = v.Release.TagName
		r.ReleaseID = v.Release.ReleaseID
	case model.PullRequestRevision:
		pr := v.PullRequest
		r.PullRequest = &pullRequestRecord{
			ID:           pr.ID,
			Strategy:     pr.Strategy.String(),
			OriginOwner:  pr.OriginOwner,
			OriginRepo:   pr.OriginRepo,
			OriginBranch: v.Origin.Branch.BranchName,
			TargetBranch: v.Target.Branch.BranchName,
			TargetHash:   v.Target.Hash,
		}
	default:
		return record{}, fmt.Errorf("unsupported revision type %T", rev)
	}
	return r, nil
}

func (r record) revision(src model.Source) (model.Revision, error) {
	kind, err := model.ParseHeadKind(r.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case model.KindBranch:
		return model.NewBranchRevision(r.Name, r.Hash), nil
	case model.KindTag:
		return model.TagRevision{Tag: model.TagHead{TagName: r.Name, Timestamp: r.Timestamp}, Hash: r.Hash}, nil
	case model.KindRelease:
		return model.ReleaseRevision{Release: model.ReleaseHead{TagName: r.TagName, ReleaseID: r.ReleaseID}, Hash: r.Hash}, nil
	case model.KindPullRequest:
		p := r.PullRequest
		if p == nil {
			return nil, fmt.Errorf("pull request head %q has no pull request details", r.Name)
		}
		strategy, err := model.ParseCheckoutStrategy(p.Strategy)
		if err != nil {
			return nil, err
		}
		target := model.NewBranchRevision(p.TargetBranch, p.TargetHash)
		return model.PullRequestRevision{
			PullRequest: model.PullRequestHead{
				DisplayName:      r.Name,
				ID:               p.ID,
				Target:           target.Branch,
				Strategy:         strategy,
				Origin:           model.ClassifyOrigin(src.Owner, src.Repository, p.OriginOwner, p.OriginRepo),
				OriginOwner:      p.OriginOwner,
				OriginRepo:       p.OriginRepo,
				OriginBranchName: p.OriginBranch,
			},
			Target: target,
			Origin: model.NewBranchRevision(p.OriginBranch, r.Hash),
		}, nil
	}
	return nil, fmt.Errorf("unsupported head kind %s", kind)
}
