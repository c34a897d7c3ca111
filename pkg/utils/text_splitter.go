package utils

// SplitText cuts text into chunks of at most chunkSize runes, each chunk
// overlapping the previous one by roughly overlap runes so context survives
// the boundary. When a cut would land mid-word it is pulled back to the
// nearest whitespace inside the last tenth of the chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	runes := []rune(text)
	total := len(runes)

	for i := 0; i < total; i += step {
		end := i + chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[i:total]))
			break
		}

		cut := end
		for j := end - 1; j > end-chunkSize/10; j-- {
			if runes[j] == ' ' || runes[j] == '\n' {
				cut = j
				break
			}
		}

		chunks = append(chunks, string(runes[i:cut]))
	}

	return chunks
}
