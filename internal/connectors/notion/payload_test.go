package notion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		pageID string
		token  string
	}{
		{"entity", `{"type":"page.content_updated","entity":{"id":"` + pageA + `","type":"page"}}`, pageA, ""},
		{"event page", `{"event":{"page":{"id":"` + pageA + `"}}}`, pageA, ""},
		{"page", `{"page":{"id":"11111111222233334444555555555555"}}`, pageA, ""},
		{"page_id", `{"page_id":"` + pageA + `"}`, pageA, ""},
		{"resource_id", `{"resource_id":"` + pageA + `"}`, pageA, ""},
		{"record", `{"record":{"id":"` + pageA + `"}}`, pageA, ""},
		{"entity wins", `{"entity":{"id":"` + pageA + `"},"page_id":"` + pageB + `"}`, pageA, ""},
		{"array uses first", `[{"page_id":"` + pageB + `"},{"page_id":"` + pageA + `"}]`, pageB, ""},
		{"verification", `{"verification_token":"secret_tok"}`, "", "secret_tok"},
		{"no id", `{"type":"comment.created"}`, "", ""},
		{"empty array", `[]`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook, err := ParseWebhook([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.pageID, hook.PageID)
			assert.Equal(t, tt.token, hook.VerificationToken)
		})
	}
}

func TestParseWebhook_Invalid(t *testing.T) {
	for _, body := range []string{"", "  ", "{not json", `"string"`} {
		_, err := ParseWebhook([]byte(body))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, body)
	}
}
