package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 20)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0])
}

func TestSplitTextChunksAndOverlap(t *testing.T) {
	text := strings.Repeat("word ", 200) // 1000 chars
	chunks := SplitText(text, 300, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 300)
	}

	// Overlap means consecutive chunks share text.
	head := chunks[1][:20]
	assert.Contains(t, chunks[0], head)
}

func TestSplitTextBreaksAtWhitespace(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 100)
	chunks := SplitText(text, 250, 40)

	for i, c := range chunks {
		if i == len(chunks)-1 {
			break
		}
		trimmed := strings.TrimRight(c, " ")
		endsClean := strings.HasSuffix(trimmed, "alpha") ||
			strings.HasSuffix(trimmed, "beta") ||
			strings.HasSuffix(trimmed, "gamma")
		assert.True(t, endsClean, "chunk %d ends mid-word: %q", i, c[len(c)-10:])
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks := SplitText(text, 100, 100)
	require.NotEmpty(t, chunks)
	// Degenerate overlap must still terminate and cover the input.
	assert.Equal(t, 500, func() int {
		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		return total
	}())
}
