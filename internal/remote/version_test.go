package remote

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerVersion_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{name: "unknown version", raw: "", expected: true},
		{name: "unparseable version", raw: "development", expected: true},
		{name: "older", raw: "1.8.3", expected: false},
		{name: "equal", raw: "1.9.0", expected: true},
		{name: "newer", raw: "1.21.4", expected: true},
		{name: "build metadata", raw: "1.9.0+dev-12-gabc123", expected: true},
		{name: "pre-release of minimum", raw: "1.9.0-rc1", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseServerVersion(tt.raw).AtLeast(TagsMinVersion))
		})
	}
}

func TestServerVersion_String(t *testing.T) {
	assert.Equal(t, "unknown", ParseServerVersion("").String())
	assert.Equal(t, "1.20.1", ParseServerVersion("1.20.1").String())
}

func TestErrors(t *testing.T) {
	err := NotFoundf("tag %s", "v1")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsForbidden(err))
	assert.Equal(t, "not found: tag v1", err.Error())

	wrapped := fmt.Errorf("failed to list collaborators: %w", ErrForbidden)
	assert.True(t, IsForbidden(wrapped))
}

func TestTag_IsAnnotated(t *testing.T) {
	assert.True(t, Tag{Name: "v1", ID: "tagobj", Commit: &CommitRef{SHA: "commit"}}.IsAnnotated())
	assert.False(t, Tag{Name: "v1", ID: "commit", Commit: &CommitRef{SHA: "commit"}}.IsAnnotated())
	assert.False(t, Tag{Name: "v1", ID: "", Commit: &CommitRef{SHA: "commit"}}.IsAnnotated())
	assert.False(t, Tag{Name: "v1", ID: "tagobj"}.IsAnnotated())
}
