package domain

import (
	"fmt"
	"strings"
)

// ProviderKind identifies the kind of upstream content provider.
type ProviderKind string

const (
	// ProviderWorkspacePage is a wiki-style workspace page (Notion).
	ProviderWorkspacePage ProviderKind = "workspace-page"

	// ProviderRepoFile is a text file at a branch and path in a repository (GitHub).
	ProviderRepoFile ProviderKind = "repo-file"
)

// providerAliases maps user-facing names to provider kinds.
var providerAliases = map[string]ProviderKind{
	"workspace-page": ProviderWorkspacePage,
	"notion":         ProviderWorkspacePage,
	"page":           ProviderWorkspacePage,
	"repo-file":      ProviderRepoFile,
	"github":         ProviderRepoFile,
	"file":           ProviderRepoFile,
}

// AllProviderKinds returns every supported provider kind.
func AllProviderKinds() []ProviderKind {
	return []ProviderKind{ProviderWorkspacePage, ProviderRepoFile}
}

// ParseProviderKind resolves a provider kind from its name or alias.
func ParseProviderKind(s string) (ProviderKind, error) {
	kind, ok := providerAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: provider %q", ErrUnsupportedType, s)
	}
	return kind, nil
}

// String returns the canonical provider kind name.
func (k ProviderKind) String() string {
	return string(k)
}

// Valid reports whether k is a known provider kind.
func (k ProviderKind) Valid() bool {
	return k == ProviderWorkspacePage || k == ProviderRepoFile
}
