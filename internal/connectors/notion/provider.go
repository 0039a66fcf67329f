package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.ContentProvider = (*Provider)(nil)

const providerName = "notion"

// Default configuration values.
const (
	// DefaultRequestsPerSecond matches Notion's documented average limit.
	DefaultRequestsPerSecond = 3

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// pageSize is the maximum page size accepted by the API.
	pageSize = 100
)

// Config holds the workspace-page provider settings.
type Config struct {
	// APIKey is the integration token (required).
	APIKey string

	// RequestsPerSecond bounds API calls.
	RequestsPerSecond float64

	// Endpoint overrides https://api.notion.com. Used by tests.
	Endpoint string

	// Transport is the underlying round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Provider serves workspace-page documents from Notion.
type Provider struct {
	client *notionapi.Client
}

// NewProvider creates a Notion provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: notion api key is required", domain.ErrInvalidInput)
	}

	var endpoint *url.URL
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("notion: parse endpoint: %w", err)
		}
		endpoint = u
	}

	httpClient := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: newTransport(cfg.Transport, cfg.RequestsPerSecond, endpoint),
	}
	client := notionapi.NewClient(notionapi.Token(cfg.APIKey), notionapi.WithHTTPClient(httpClient))
	return &Provider{client: client}, nil
}

// Kind returns domain.ProviderWorkspacePage.
func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderWorkspacePage
}

// Discover lists every page shared with the integration, following
// search cursors until exhausted. Archived pages are skipped.
func (p *Provider) Discover(ctx context.Context) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	req := &notionapi.SearchRequest{
		Filter:   notionapi.SearchFilter{Value: "page", Property: "object"},
		PageSize: pageSize,
	}
	for {
		resp, err := p.client.Search.Do(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("notion: search: %w", err)
		}
		for _, obj := range resp.Results {
			page, ok := obj.(*notionapi.Page)
			if !ok || page.Archived {
				continue
			}
			id := NormalizePageID(string(page.ID))
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return ids, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// Fetch loads the page and renders its block tree as text.
// Archived pages return a gone UpstreamError.
func (p *Provider) Fetch(ctx context.Context, documentID string) (*domain.RawDocument, error) {
	id := NormalizePageID(documentID)

	page, err := p.client.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, fmt.Errorf("notion: get page %s: %w", id, err)
	}
	if page.Archived {
		return nil, &domain.UpstreamError{
			Provider:   providerName,
			Op:         "fetch",
			StatusCode: http.StatusGone,
			Message:    "page is archived",
		}
	}

	text, err := p.renderBlocks(ctx, notionapi.BlockID(id))
	if err != nil {
		return nil, fmt.Errorf("notion: read blocks of %s: %w", id, err)
	}

	title := PageTitle(page)
	if title == "" {
		title = "notion_" + id
	}
	return &domain.RawDocument{
		ID:           id,
		ProviderKind: domain.ProviderWorkspacePage,
		Title:        title,
		SourceURL:    PageURL(id),
		Text:         text,
		LastEditedAt: page.LastEditedTime,
		Metadata: map[string]string{
			"notion_page_id": id,
			"created_time":   page.CreatedTime.UTC().Format(time.RFC3339),
		},
	}, nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// NormalizePageID returns the canonical dashed form of a page ID.
// IDs that are not UUIDs are returned trimmed but otherwise unchanged.
func NormalizePageID(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// PageURL returns the notion.so URL of a page.
func PageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}

// PageTitle returns the plain text of the page's title property.
func PageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if t, ok := prop.(*notionapi.TitleProperty); ok {
			return strings.TrimSpace(richText(t.Title))
		}
	}
	return ""
}
