package notion

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Webhook is the part of a Notion webhook delivery the indexer needs.
type Webhook struct {
	// PageID is the normalised page the event refers to, empty when absent.
	PageID string

	// VerificationToken is set on the subscription handshake.
	VerificationToken string

	// Type is the event type, for example "page.content_updated".
	Type string
}

// envelope covers the payload shapes Notion and relays have used over time.
type envelope struct {
	Type              string `json:"type"`
	VerificationToken string `json:"verification_token"`
	Entity            *ref   `json:"entity"`
	Event             *struct {
		Page *ref `json:"page"`
	} `json:"event"`
	Page       *ref   `json:"page"`
	PageID     string `json:"page_id"`
	ResourceID string `json:"resource_id"`
	Record     *ref   `json:"record"`
}

type ref struct {
	ID string `json:"id"`
}

// ParseWebhook decodes a webhook body. A JSON array is treated as a batch
// and only its first element is read.
func ParseWebhook(body []byte) (*Webhook, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty webhook body", domain.ErrInvalidInput)
	}

	var env envelope
	if strings.HasPrefix(trimmed, "[") {
		var batch []envelope
		if err := json.Unmarshal([]byte(trimmed), &batch); err != nil {
			return nil, fmt.Errorf("%w: decode webhook: %v", domain.ErrInvalidInput, err)
		}
		if len(batch) > 0 {
			env = batch[0]
		}
	} else if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("%w: decode webhook: %v", domain.ErrInvalidInput, err)
	}

	return &Webhook{
		PageID:            env.pageID(),
		VerificationToken: env.VerificationToken,
		Type:              env.Type,
	}, nil
}

// pageID returns the first non-empty candidate in precedence order.
func (e *envelope) pageID() string {
	candidates := []string{
		idOf(e.Entity),
		"",
		idOf(e.Page),
		e.PageID,
		e.ResourceID,
		idOf(e.Record),
	}
	if e.Event != nil {
		candidates[1] = idOf(e.Event.Page)
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return NormalizePageID(c)
		}
	}
	return ""
}

func idOf(r *ref) string {
	if r == nil {
		return ""
	}
	return r.ID
}
