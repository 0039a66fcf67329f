package github

import (
	"fmt"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Webhook event types handled by PushParser.
const (
	EventPush = "push"
	EventPing = "ping"
)

// Push is the result of parsing one webhook delivery.
type Push struct {
	// Ping is set for the ping event sent when a webhook is created.
	Ping bool

	// Repo is owner/name.
	Repo string

	// Branch is the pushed branch.
	Branch string

	// DocumentIDs lists every added, modified or removed file that matches
	// the configured extensions, sorted and deduplicated.
	DocumentIDs []string

	// Ignored explains why a push produced no documents.
	Ignored string
}

// PushParser verifies and parses GitHub push webhooks.
type PushParser struct {
	cfg Config
}

// NewPushParser creates a parser using cfg's secret, extensions and repos.
func NewPushParser(cfg Config) *PushParser {
	return &PushParser{cfg: cfg}
}

// Parse verifies the X-Hub-Signature-256 header when a secret is
// configured and extracts document IDs from a push event.
func (p *PushParser) Parse(eventType, signature string, body []byte) (*Push, error) {
	if p.cfg.WebhookSecret != "" {
		if err := gh.ValidateSignature(signature, body, []byte(p.cfg.WebhookSecret)); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
		}
	}

	switch eventType {
	case EventPing:
		return &Push{Ping: true}, nil
	case EventPush:
	default:
		return nil, fmt.Errorf("%w: github event %q", domain.ErrUnsupportedType, eventType)
	}

	payload, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	event, ok := payload.(*gh.PushEvent)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrInvalidInput, payload)
	}
	return p.fromEvent(event), nil
}

func (p *PushParser) fromEvent(event *gh.PushEvent) *Push {
	repo := event.GetRepo().GetFullName()
	branch, isBranch := strings.CutPrefix(event.GetRef(), "refs/heads/")
	push := &Push{Repo: repo, Branch: branch}

	switch {
	case repo == "":
		push.Ignored = "missing repository"
		return push
	case !isBranch:
		push.Ignored = "not a branch push"
		return push
	case !p.tracksRepo(repo):
		push.Ignored = "repository not configured"
		return push
	case !p.tracksBranch(repo, branch, event.GetRepo().GetDefaultBranch()):
		push.Ignored = "branch not indexed"
		return push
	}

	commits := event.Commits
	if len(commits) == 0 && event.HeadCommit != nil {
		commits = []*gh.HeadCommit{event.HeadCommit}
	}

	var ids []string
	for _, c := range commits {
		for _, paths := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, path := range paths {
				if p.cfg.MatchesExtension(path) {
					ids = append(ids, DocumentID{Repo: repo, Branch: branch, Path: path}.String())
				}
			}
		}
	}
	push.DocumentIDs = sortedUnique(ids)
	if len(push.DocumentIDs) == 0 {
		push.Ignored = "no matching files"
	}
	return push
}

// tracksRepo reports whether pushes to repo are indexed. Without configured
// repositories every repository is tracked.
func (p *PushParser) tracksRepo(repo string) bool {
	if len(p.cfg.Repos) == 0 {
		return true
	}
	for _, r := range p.cfg.Repos {
		if strings.EqualFold(r.FullName(), repo) {
			return true
		}
	}
	return false
}

// tracksBranch accepts the configured branch, or the default branch when
// none is configured.
func (p *PushParser) tracksBranch(repo, branch, defaultBranch string) bool {
	if configured, ok := p.cfg.configuredBranch(repo); ok {
		return branch == configured
	}
	return branch == defaultBranch
}
