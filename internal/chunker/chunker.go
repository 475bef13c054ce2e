package chunker

// DefaultSize is the window length, in characters, used when none is given.
const DefaultSize = 800

// Split slices text into consecutive, non-overlapping windows of size
// characters, in document order. The last window may be shorter. Windows
// are counted in runes so multi-byte characters are never cut in half.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if len(text) == 0 {
		return nil
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
	return append(chunks, text[start:])
}
