package export

// Chunk splits text into consecutive slices of at most size runes.
// Joining the result yields text unchanged. Empty text yields no chunks.
func Chunk(text string, size int) []string {
	if size <= 0 {
		panic("export: chunk size must be positive")
	}

	var chunks []string
	start, count := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
