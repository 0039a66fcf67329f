package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.ContentProvider = (*Provider)(nil)

// Provider serves repo-file documents: text files at a branch and path.
type Provider struct {
	cfg    Config
	client *Client
}

// NewProvider creates a repo-file provider.
func NewProvider(cfg Config, client *Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

// Kind returns domain.ProviderRepoFile.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderRepoFile
}

// Config returns the provider configuration.
func (p *Provider) Config() Config {
	return p.cfg
}

// Discover lists every matching file of every configured repository.
// Without configured repositories it crawls every accessible repository.
func (p *Provider) Discover(ctx context.Context) ([]string, error) {
	repos, err := p.resolveRepos(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tree, err := p.client.GetTree(ctx, repo.Owner, repo.Name, repo.Branch)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", repo, err)
		}
		if tree.GetTruncated() {
			logger.Warn("github: tree of %s is truncated, some files are not indexed", repo)
		}
		for _, entry := range tree.Entries {
			if entry.GetType() != "blob" || entry.GetSize() > MaxFileSize {
				continue
			}
			if !p.cfg.MatchesExtension(entry.GetPath()) {
				continue
			}
			ids = append(ids, DocumentID{Repo: repo.FullName(), Branch: repo.Branch, Path: entry.GetPath()}.String())
		}
	}
	return sortedUnique(ids), nil
}

// resolveRepos returns the repositories to crawl with their branch filled in.
func (p *Provider) resolveRepos(ctx context.Context) ([]RepoRef, error) {
	if len(p.cfg.Repos) == 0 {
		all, err := p.client.ListAllAccessibleRepos(ctx)
		if err != nil {
			return nil, err
		}
		refs := make([]RepoRef, 0, len(all))
		for _, r := range all {
			if r.GetArchived() || r.GetDisabled() || r.GetSize() == 0 {
				continue
			}
			refs = append(refs, RepoRef{
				Owner:  r.GetOwner().GetLogin(),
				Name:   r.GetName(),
				Branch: r.GetDefaultBranch(),
			})
		}
		return refs, nil
	}

	refs := make([]RepoRef, 0, len(p.cfg.Repos))
	for _, ref := range p.cfg.Repos {
		if ref.Branch == "" {
			repo, err := p.client.GetRepository(ctx, ref.Owner, ref.Name)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", ref, err)
			}
			ref.Branch = repo.GetDefaultBranch()
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Fetch returns the file content. A missing file or branch yields a
// not-found UpstreamError; a path that is now a directory counts as gone.
func (p *Provider) Fetch(ctx context.Context, documentID string) (*domain.RawDocument, error) {
	id, err := ParseDocumentID(documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	file, content, err := p.client.GetFile(ctx, id.Owner(), id.Name(), id.Path, id.Branch)
	if err != nil {
		if errors.Is(err, ErrNotAFile) {
			return nil, &domain.UpstreamError{
				Provider:   providerName,
				Op:         "fetch",
				StatusCode: http.StatusNotFound,
				Message:    err.Error(),
			}
		}
		return nil, err
	}

	doc := &domain.RawDocument{
		ID:           id.String(),
		ProviderKind: domain.ProviderRepoFile,
		Title:        id.Path,
		SourceURL:    id.URL(),
		Text:         content,
		Metadata: map[string]string{
			"repo":   id.Repo,
			"branch": id.Branch,
			"path":   id.Path,
			"sha":    file.GetSHA(),
		},
	}

	// Best-effort: the document is still indexable without a timestamp.
	if edited, err := p.client.LastCommitTime(ctx, id.Owner(), id.Name(), id.Path, id.Branch); err == nil {
		doc.LastEditedAt = edited
	} else {
		logger.Debug("github: last commit of %s: %v", documentID, err)
	}
	return doc, nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
