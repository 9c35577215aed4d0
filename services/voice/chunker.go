package voice

import (
	"strings"
	"unicode/utf8"
)

// boundaries are the characters after which a chunk may be sent for synthesis.
const boundaries = ".,?!;:—-()[]} "

func isBoundary(r rune) bool {
	return strings.ContainsRune(boundaries, r)
}

// Chunker groups streamed text fragments into speakable pieces. Each emitted
// chunk ends with a single trailing space.
type Chunker struct {
	buf string
}

// Push feeds one fragment and returns a chunk when one is ready.
func (c *Chunker) Push(fragment string) (string, bool) {
	if last, _ := utf8.DecodeLastRuneInString(c.buf); c.buf != "" && isBoundary(last) {
		out := c.buf + " "
		c.buf = fragment
		return out, true
	}
	if first, size := utf8.DecodeRuneInString(fragment); fragment != "" && isBoundary(first) {
		out := c.buf + fragment[:size] + " "
		c.buf = fragment[size:]
		return out, true
	}
	c.buf += fragment
	return "", false
}

// Flush returns whatever is left once the input is exhausted.
func (c *Chunker) Flush() (string, bool) {
	if c.buf == "" {
		return "", false
	}
	out := c.buf + " "
	c.buf = ""
	return out, true
}

// ChunkText applies the chunking rule to a complete fragment list.
func ChunkText(fragments []string) []string {
	var c Chunker
	var out []string
	for _, f := range fragments {
		if chunk, ok := c.Push(f); ok {
			out = append(out, chunk)
		}
	}
	if chunk, ok := c.Flush(); ok {
		out = append(out, chunk)
	}
	return out
}
