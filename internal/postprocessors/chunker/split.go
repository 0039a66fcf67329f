package chunker

import (
	"strings"
	"unicode/utf8"
)

const blockSeparator = "\n\n"

// Split chunks text into pieces of at most maxSize runes.
//
// Prose is split on blank lines and before markdown headings, and the
// resulting blocks are packed greedily; trailing blocks that fit within
// overlap are repeated at the start of the next chunk. Blocks longer than
// maxSize, and text without any block structure, are cut by Window.
//
// Text of at most maxSize runes yields exactly one chunk; empty text yields none.
func Split(text string, maxSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}
	if utf8.RuneCountInString(text) <= maxSize {
		return []string{text}
	}

	blocks := splitBlocks(text)
	if len(blocks) < 2 {
		return Window(text, maxSize, overlap)
	}
	return pack(blocks, maxSize, overlap)
}

// Window cuts text into fixed windows of maxSize runes, advancing by
// maxSize-overlap. The last window ends at the end of text and may be shorter.
// Windows that are empty after trimming are dropped.
func Window(text string, maxSize, overlap int) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if maxSize <= 0 {
		return []string{text}
	}
	step := maxSize - overlap
	if step <= 0 {
		step = maxSize
	}

	var out []string
	for start := 0; ; start += step {
		end := start + maxSize
		if end > n {
			end = n
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == n {
			break
		}
	}
	return out
}

// splitBlocks splits text on blank lines and before heading lines.
func splitBlocks(text string) []string {
	var blocks []string
	for _, para := range strings.Split(text, blockSeparator) {
		var current []string
		for _, line := range strings.Split(para, "\n") {
			if isHeading(line) && len(current) > 0 {
				blocks = appendBlock(blocks, strings.Join(current, "\n"))
				current = current[:0]
			}
			current = append(current, line)
		}
		blocks = appendBlock(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

func appendBlock(blocks []string, block string) []string {
	block = strings.TrimSpace(block)
	if block == "" {
		return blocks
	}
	return append(blocks, block)
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "#")
	level := len(trimmed) - len(rest)
	return level <= 6 && (rest == "" || rest[0] == ' ')
}

// pack joins blocks greedily into chunks of at most maxSize runes.
func pack(blocks []string, maxSize, overlap int) []string {
	sepLen := utf8.RuneCountInString(blockSeparator)

	var (
		out     []string
		current []string
		size    int
	)
	lengthOf := func(parts []string) int {
		total := 0
		for i, p := range parts {
			if i > 0 {
				total += sepLen
			}
			total += utf8.RuneCountInString(p)
		}
		return total
	}
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, blockSeparator))
		}
	}

	for _, block := range blocks {
		blockLen := utf8.RuneCountInString(block)

		if blockLen > maxSize {
			flush()
			out = append(out, Window(block, maxSize, overlap)...)
			current, size = nil, 0
			continue
		}

		if len(current) > 0 && size+sepLen+blockLen > maxSize {
			flush()
			current = carryOver(current, overlap, maxSize-blockLen-sepLen, lengthOf)
			size = lengthOf(current)
		}

		if len(current) > 0 {
			size += sepLen
		}
		current = append(current, block)
		size += blockLen
	}
	flush()
	return out
}

// carryOver returns the longest suffix of blocks, excluding the first block,
// whose length fits within both overlap and room.
func carryOver(blocks []string, overlap, room int, lengthOf func([]string) int) []string {
	limit := overlap
	if room < limit {
		limit = room
	}
	if limit <= 0 {
		return nil
	}
	for start := 1; start < len(blocks); start++ {
		suffix := blocks[start:]
		if lengthOf(suffix) <= limit {
			return append([]string(nil), suffix...)
		}
	}
	return nil
}
