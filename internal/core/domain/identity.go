package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// HashPrefixLen is the number of content hash characters embedded in chunk IDs.
const HashPrefixLen = 8

// DefaultExcerptLen is the number of runes kept in a chunk excerpt.
const DefaultExcerptLen = 200

// chunkIDSeparator separates the parts of a chunk ID.
const chunkIDSeparator = "::"

// ContentHash returns the SHA-256 hex digest of the canonical text.
func ContentHash(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// ChunkHash returns the SHA-256 hex digest of a chunk's text.
func ChunkHash(text string) string {
	return ContentHash(text)
}

// ChunkID derives the deterministic chunk identity from the document ID,
// the content hash prefix and the zero-padded chunk index.
func ChunkID(documentID, contentHash string, index int) string {
	prefix := contentHash
	if len(prefix) > HashPrefixLen {
		prefix = prefix[:HashPrefixLen]
	}
	return fmt.Sprintf("%s%s%s%s%05d", documentID, chunkIDSeparator, prefix, chunkIDSeparator, index)
}

// ParseChunkID splits a chunk ID into its document ID, hash prefix and index.
// The document ID may itself contain the separator; the last two parts are
// always the hash prefix and index.
func ParseChunkID(id string) (documentID, hashPrefix string, index int, err error) {
	parts := strings.Split(id, chunkIDSeparator)
	if len(parts) < 3 {
		return "", "", 0, fmt.Errorf("%w: chunk id %q", ErrInvalidInput, id)
	}
	n := len(parts)
	index, err = strconv.Atoi(parts[n-1])
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: chunk id %q", ErrInvalidInput, id)
	}
	return strings.Join(parts[:n-2], chunkIDSeparator), parts[n-2], index, nil
}

// Excerpt returns at most n runes of text.
func Excerpt(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
