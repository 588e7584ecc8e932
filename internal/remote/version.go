package remote

import (
	"github.com/Masterminds/semver/v3"
	"k8s.io/klog/v2"
)

var (
	// TagsMinVersion is the first server version with a tag listing API.
	TagsMinVersion = semver.MustParse("1.9.0")
	// CollaboratorsMinVersion is the first server version that lets
	// non-admin callers list collaborators.
	CollaboratorsMinVersion = semver.MustParse("1.13.0")
)

// ServerVersion is a parsed server version. The nil value means the version
// is unknown and every capability is assumed.
type ServerVersion struct {
	v *semver.Version
}

// ParseServerVersion parses raw. An empty or unparseable version yields an
// unknown version.
func ParseServerVersion(raw string) *ServerVersion {
	if raw == "" {
		return nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		klog.Warningf("Server version %q could not be parsed as a semantic version, assuming a current server: %v", raw, err)
		return nil
	}
	return &ServerVersion{v: v}
}

// AtLeast reports whether the server is min or newer. Pre-release builds of
// min count as older.
func (s *ServerVersion) AtLeast(min *semver.Version) bool {
	if s == nil {
		return true
	}
	return !s.v.LessThan(min)
}

func (s *ServerVersion) String() string {
	if s == nil {
		return "unknown"
	}
	return s.v.Original()
}
