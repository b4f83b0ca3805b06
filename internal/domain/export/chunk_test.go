package export

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunk_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a",
		strings.Repeat("x", 10),
		strings.Repeat("abcdefghij", 1000) + "tail",
		strings.Repeat("привет мир ", 777),
		strings.Repeat("🚀 emoji\n\n", 300),
	}
	sizes := []int{1, 3, 10, 4000}

	for _, input := range inputs {
		for _, size := range sizes {
			chunks := Chunk(input, size)
			require.Equal(t, input, strings.Join(chunks, ""), "size %d", size)
			for _, chunk := range chunks {
				require.NotEmpty(t, chunk)
				require.LessOrEqual(t, utf8.RuneCountInString(chunk), size)
				require.True(t, utf8.ValidString(chunk))
			}
		}
	}
}

func TestChunk_Boundaries(t *testing.T) {
	require.Nil(t, Chunk("", 5))
	require.Equal(t, []string{"abcde"}, Chunk("abcde", 5))
	require.Equal(t, []string{"abc", "de"}, Chunk("abcde", 3))
	require.Equal(t, []string{"a", "b"}, Chunk("ab", 1))
}

func TestChunk_PanicsOnInvalidSize(t *testing.T) {
	require.Panics(t, func() { Chunk("abc", 0) })
}
