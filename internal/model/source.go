package model

import (
	"net/url"
	"strings"
)

// Source identifies one configured remote repository.
type Source struct {
	ServerURL  string
	Owner      string
	Repository string
}

func (s Source) String() string {
	host := Host(s.ServerURL)
	if host == "" {
		return s.Owner + "/" + s.Repository
	}
	return host + "/" + s.Owner + "/" + s.Repository
}

// Matches reports whether owner/repo on the server at serverURL is this
// source. Owner and repository compare case-insensitively; servers compare
// by host (including port).
func (s Source) Matches(serverURL, owner, repo string) bool {
	if !strings.EqualFold(s.Owner, owner) || !strings.EqualFold(s.Repository, repo) {
		return false
	}
	want := Host(s.ServerURL)
	got := Host(serverURL)
	if want == "" || got == "" {
		return false
	}
	return want == got
}

// Host returns the lower-cased host[:port] of rawURL, or "" when rawURL
// cannot be parsed or has no host.
func Host(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
