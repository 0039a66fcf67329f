package canonical

import "regexp"

// Placeholders substituted by Redact.
const (
	RedactedEmail = "<REDACTED_EMAIL>"
	RedactedPhone = "<REDACTED_PHONE>"
	RedactedToken = "<REDACTED_TOKEN>"
)

// Order matters: emails go first so their digits are not read as phones,
// and phones before tokens so long digit runs become phones.
var redactions = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`), RedactedEmail},
	{regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?(\(?\d{2,4}\)?)[-.\s]?\d{3,4}[-.\s]?\d{3,4}`), RedactedPhone},
	{regexp.MustCompile(`\b[A-Za-z0-9_\-]{30,}\b`), RedactedToken},
}

// Redact replaces email addresses, phone-like digit sequences and long
// opaque tokens with fixed placeholders.
//
// This is a privacy guard for embedded text, not a secret scanner.
func Redact(text string) string {
	for _, r := range redactions {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}
