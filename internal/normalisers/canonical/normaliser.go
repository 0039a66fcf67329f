// Package canonical turns raw provider text into the canonical form that is
// hashed, chunked and embedded.
//
// Every function here is pure and idempotent: feeding canonical text back in
// yields the same text, so content hashes stay stable across re-crawls.
package canonical

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TextNormaliser = (*Normaliser)(nil)

var (
	spaceRun     = regexp.MustCompile(`[ \x{00A0}]+`)
	trailingRun  = regexp.MustCompile(` +\n`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
	lineEndings  = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\t", " ")
)

// Normaliser canonicalises text. The zero value redacts; use WithoutRedaction
// to keep personal data intact (useful for private deployments).
type Normaliser struct {
	skipRedaction bool
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithoutRedaction disables the redaction pass.
func WithoutRedaction() Option {
	return func(n *Normaliser) {
		n.skipRedaction = true
	}
}

// New creates a canonical text normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Canonicalise normalises and then redacts text.
func (n *Normaliser) Canonicalise(text string) string {
	if n.skipRedaction {
		return Normalise(text)
	}
	return Canonicalise(text)
}

// Canonicalise is Redact(Normalise(text)).
func Canonicalise(text string) string {
	return Redact(Normalise(text))
}

// Normalise applies, in order: NFC, line-ending unification, tab expansion
// to a single space, space collapsing, trailing-space removal, blank-line
// collapsing (3+ newlines become 2) and trimming.
func Normalise(text string) string {
	if text == "" {
		return ""
	}
	out := norm.NFC.String(text)
	out = lineEndings.Replace(out)
	out = spaceRun.ReplaceAllString(out, " ")
	out = trailingRun.ReplaceAllString(out, "\n")
	out = blankLineRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
