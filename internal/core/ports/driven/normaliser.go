package driven

// TextNormaliser turns raw provider text into canonical text.
// Implementations are pure, deterministic and idempotent:
// Canonicalise(Canonicalise(s)) == Canonicalise(s).
type TextNormaliser interface {
	// Canonicalise normalises and redacts text.
	Canonicalise(text string) string
}
