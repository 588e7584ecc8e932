package remote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of Client.
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

// GetRepository implements Client.
func (m *MockClient) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Repository), args.Error(1)
}

// ServerVersion implements Client.
func (m *MockClient) ServerVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// ListBranches implements Client.
func (m *MockClient) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Branch), args.Error(1)
}

// ListTags implements Client.
func (m *MockClient) ListTags(ctx context.Context, owner, repo string, page int) ([]Tag, int, error) {
	args := m.Called(ctx, owner, repo, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Tag), args.Int(1), args.Error(2)
}

// GetTag implements Client.
func (m *MockClient) GetTag(ctx context.Context, owner, repo, name string) (*Tag, error) {
	args := m.Called(ctx, owner, repo, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tag), args.Error(1)
}

// GetAnnotatedTag implements Client.
func (m *MockClient) GetAnnotatedTag(ctx context.Context, owner, repo, sha string) (*AnnotatedTag, error) {
	args := m.Called(ctx, owner, repo, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AnnotatedTag), args.Error(1)
}

// GetCommit implements Client.
func (m *MockClient) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	args := m.Called(ctx, owner, repo, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Commit), args.Error(1)
}

// ListPullRequests implements Client.
func (m *MockClient) ListPullRequests(ctx context.Context, owner, repo string, state PullRequestState) ([]PullRequest, error) {
	args := m.Called(ctx, owner, repo, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PullRequest), args.Error(1)
}

// ListReleases implements Client.
func (m *MockClient) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Release), args.Error(1)
}

// ListCollaborators implements Client.
func (m *MockClient) ListCollaborators(ctx context.Context, owner, repo string) ([]string, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
