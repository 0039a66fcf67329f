package github

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// DefaultExtensions selects markdown files when none are configured.
var DefaultExtensions = []string{".md"}

// MaxFileSize skips blobs larger than 1MB.
const MaxFileSize = 1 << 20

// Config holds the repo-file provider settings.
type Config struct {
	// Token is a personal access token or OAuth access token.
	Token string

	// Repos to crawl. Empty means every repository the token can access.
	Repos []RepoRef

	// Extensions selects which files become documents (".md").
	Extensions []string

	// WebhookSecret enables X-Hub-Signature-256 verification when set.
	WebhookSecret string

	// BaseURL targets a GitHub Enterprise API when set.
	BaseURL string

	// RequestsPerSecond bounds API calls.
	RequestsPerSecond float64
}

// RepoRef names a repository and, optionally, the branch to index.
type RepoRef struct {
	Owner  string
	Name   string
	Branch string
}

// FullName returns owner/name.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// String returns owner/name or owner/name@branch.
func (r RepoRef) String() string {
	if r.Branch == "" {
		return r.FullName()
	}
	return r.FullName() + "@" + r.Branch
}

// ParseRepoRef parses "owner/repo" or "owner/repo@branch".
func ParseRepoRef(s string) (RepoRef, error) {
	s = strings.TrimSpace(s)
	full, branch, _ := strings.Cut(s, "@")
	owner, name, ok := strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidRepo, s)
	}
	return RepoRef{Owner: owner, Name: name, Branch: branch}, nil
}

// ParseRepoRefs parses every entry, failing on the first invalid one.
func ParseRepoRefs(entries []string) ([]RepoRef, error) {
	refs := make([]RepoRef, 0, len(entries))
	for _, e := range entries {
		ref, err := ParseRepoRef(e)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// extensions returns the configured extensions, lowercased.
func (c *Config) extensions() []string {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = strings.ToLower(e)
	}
	return out
}

// MatchesExtension reports whether p has one of the configured extensions.
func (c *Config) MatchesExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range c.extensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// configuredBranch returns the branch pinned for a repository, if any.
func (c *Config) configuredBranch(fullName string) (string, bool) {
	for _, r := range c.Repos {
		if strings.EqualFold(r.FullName(), fullName) && r.Branch != "" {
			return r.Branch, true
		}
	}
	return "", false
}

// DocumentID identifies a file at a branch of a repository.
type DocumentID struct {
	Repo   string // owner/name
	Branch string
	Path   string
}

// String formats the ID as owner/repo@branch:path. GitHub treats owner and
// repository names case-insensitively, so the repo part is lower-cased to
// give one ID per file whichever casing config or webhooks use.
func (d DocumentID) String() string {
	return strings.ToLower(d.Repo) + "@" + d.Branch + ":" + d.Path
}

// Owner returns the repository owner.
func (d DocumentID) Owner() string {
	owner, _, _ := strings.Cut(d.Repo, "/")
	return owner
}

// Name returns the repository name.
func (d DocumentID) Name() string {
	_, name, _ := strings.Cut(d.Repo, "/")
	return name
}

// URL returns the github.com blob URL for the file.
func (d DocumentID) URL() string {
	return fmt.Sprintf("https://github.com/%s/blob/%s/%s", d.Repo, d.Branch, d.Path)
}

// ParseDocumentID parses owner/repo@branch:path.
func ParseDocumentID(s string) (DocumentID, error) {
	repo, rest, ok := strings.Cut(s, "@")
	if !ok {
		return DocumentID{}, fmt.Errorf("%w: %q", ErrInvalidDocumentID, s)
	}
	branch, p, ok := strings.Cut(rest, ":")
	if !ok || branch == "" || p == "" {
		return DocumentID{}, fmt.Errorf("%w: %q", ErrInvalidDocumentID, s)
	}
	if _, err := ParseRepoRef(repo); err != nil {
		return DocumentID{}, fmt.Errorf("%w: %q", ErrInvalidDocumentID, s)
	}
	return DocumentID{Repo: strings.ToLower(repo), Branch: branch, Path: p}, nil
}

// sortedUnique returns ids sorted with duplicates removed.
func sortedUnique(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}
