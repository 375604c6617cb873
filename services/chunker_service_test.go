package services

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunkerService(1000, 200)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestSplitSingleSentence(t *testing.T) {
	c := NewChunkerService(1000, 200)

	chunks := c.Split("Refunds are processed within 30 days.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Refunds are processed within 30 days.", chunks[0])
}

func TestSplitKeepsUnterminatedTail(t *testing.T) {
	c := NewChunkerService(1000, 200)

	chunks := c.Split("First sentence. trailing fragment without punctuation")
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "trailing fragment without punctuation")
}

func TestSplitOverlongSentenceBecomesOwnChunk(t *testing.T) {
	c := NewChunkerService(50, 10)

	long := strings.Repeat("word ", 30) + "end."
	chunks := c.Split(long)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(long), chunks[0])
}

func TestSplitOverlapProperty(t *testing.T) {
	c := NewChunkerService(100, 20)

	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %02d says something brief.", i))
	}
	chunks := c.Split(strings.Join(sentences, " "))
	require.Greater(t, len(chunks), 1)

	for i := 0; i+1 < len(chunks); i++ {
		prev := []rune(chunks[i])
		next := []rune(chunks[i+1])
		require.GreaterOrEqual(t, len(prev), 20, "chunk %d shorter than the overlap", i)
		assert.Equal(t, string(prev[len(prev)-20:]), string(next[:20]),
			"trailing overlap of chunk %d must equal leading overlap of chunk %d", i, i+1)
	}
}

func TestSplitScenario2400Chars(t *testing.T) {
	// 30 sentences of 80 characters each, windowed at 1000 with overlap 200.
	c := NewChunkerService(1000, 200)

	var sentences []string
	for i := 0; i < 30; i++ {
		s := fmt.Sprintf("%02d%s.", i, strings.Repeat("x", 77))
		require.Equal(t, 80, utf8.RuneCountInString(s))
		sentences = append(sentences, s)
	}
	text := strings.Join(sentences, " ")

	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 1000, "chunk %d exceeds the window", i)
	}
	assert.Greater(t, utf8.RuneCountInString(chunks[0]), 900)

	// Stripping the carried overlap (plus its joiner) from every chunk after
	// the first must reconstruct the whole text: nothing is lost.
	rebuilt := chunks[0]
	for _, ch := range chunks[1:] {
		runes := []rune(ch)
		rebuilt += " " + string(runes[201:])
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplitAllContentCovered(t *testing.T) {
	c := NewChunkerService(120, 30)

	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, fmt.Sprintf("Fact %d is recorded here for posterity.", i))
	}
	chunks := c.Split(strings.Join(sentences, " "))

	joined := strings.Join(chunks, " ")
	for _, s := range sentences {
		assert.Contains(t, joined, s)
	}
}
