package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a client authenticated with a static token.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	}
	return NewClientWithHTTPClient(httpClient, cfg.BaseURL, cfg.RequestsPerSecond)
}

// NewClientWithHTTPClient creates a client on a custom http.Client.
// baseURL targets GitHub Enterprise or a test server when set.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, rps float64) (*Client, error) {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Client{gh: client, rateLimiter: NewRateLimiter(rps)}, nil
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// ListAllAccessibleRepos returns every repository the token can access:
// owned, collaborator and organisation member repositories.
func (c *Client) ListAllAccessibleRepos(ctx context.Context) ([]*gh.Repository, error) {
	var all []*gh.Repository

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Affiliation: "owner,collaborator,organization_member",
		Sort:        "full_name",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		c.observe(resp)
		if err != nil {
			return nil, wrapError(err, "list repos")
		}
		all = append(all, repos...)

		if resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.observe(resp)
	if err != nil {
		return nil, wrapError(err, "get repo")
	}
	return repository, nil
}

// GetTree fetches the recursive tree at ref.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	c.observe(resp)
	if err != nil {
		return nil, wrapError(err, "get tree")
	}
	return tree, nil
}

// GetFile fetches a file's decoded content at ref.
func (c *Client) GetFile(ctx context.Context, owner, repo, path, ref string) (*gh.RepositoryContent, string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	c.observe(resp)
	if err != nil {
		return nil, "", wrapError(err, "get contents")
	}
	if file == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("github: decode %s: %w", path, err)
	}
	return file, content, nil
}

// LastCommitTime returns the time of the latest commit touching path at ref,
// or the zero time when none is found.
func (c *Client) LastCommitTime(ctx context.Context, owner, repo, path, ref string) (time.Time, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}

	opts := &gh.CommitsListOptions{SHA: ref, Path: path, ListOptions: gh.ListOptions{PerPage: 1}}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	c.observe(resp)
	if err != nil {
		return time.Time{}, wrapError(err, "list commits")
	}
	if len(commits) == 0 {
		return time.Time{}, nil
	}
	return commits[0].GetCommit().GetCommitter().GetDate().Time, nil
}

// observe updates the rate limiter from response headers.
func (c *Client) observe(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}
