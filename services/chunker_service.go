package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ChunkerService splits raw document text into bounded, overlapping windows.
// Sentences are packed into windows of at most maxSize characters, and every
// window after the first starts with the trailing overlap characters of the
// previous one so context survives across chunk boundaries.
type ChunkerService struct {
	maxSize  int
	overlap  int
	splitter *regexp.Regexp
}

// NewChunkerService creates a chunker with the given window size and overlap,
// both measured in characters.
func NewChunkerService(maxSize, overlap int) *ChunkerService {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 2
	}
	return &ChunkerService{
		maxSize:  maxSize,
		overlap:  overlap,
		splitter: regexp.MustCompile(`[^.!?]+[.!?]+`),
	}
}

// Split turns text into an ordered sequence of chunks. Empty or
// whitespace-only input yields zero chunks; a single sentence longer than the
// window becomes its own chunk rather than failing.
func (c *ChunkerService) Split(text string) []string {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	cur := ""
	for _, s := range sentences {
		if cur == "" {
			cur = s
			continue
		}
		if utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(s) > c.maxSize {
			chunks = append(chunks, cur)
			if carry := tailRunes(cur, c.overlap); carry != "" {
				cur = carry + " " + s
			} else {
				cur = s
			}
			continue
		}
		cur += " " + s
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// sentences splits text on terminal punctuation. An unterminated tail is kept
// as a final sentence so no text is lost.
func (c *ChunkerService) sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// tailRunes returns the last n runes of s, or all of s when it is shorter.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
