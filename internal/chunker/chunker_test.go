package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		wantCount int
	}{
		{"empty", "", 800, 0},
		{"shorter than window", "hello", 800, 1},
		{"exact window", strings.Repeat("x", 800), 800, 1},
		{"one over", strings.Repeat("x", 801), 800, 2},
		{"three windows", strings.Repeat("a", 2400), 800, 3},
		{"uneven tail", strings.Repeat("abc", 1000), 800, 4},
		{"default size", strings.Repeat("z", 1601), 0, 3},
		{"multi-byte", strings.Repeat("é€", 500), 800, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.size
			if size <= 0 {
				size = DefaultSize
			}
			chunks := Split(tt.text, tt.size)
			if len(chunks) != tt.wantCount {
				t.Fatalf("count got %d, want %d", len(chunks), tt.wantCount)
			}
			if got := strings.Join(chunks, ""); got != tt.text {
				t.Fatalf("concatenation does not reproduce input")
			}
			total := 0
			for i, c := range chunks {
				n := utf8.RuneCountInString(c)
				total += n
				if !utf8.ValidString(c) {
					t.Errorf("chunk %d is not valid UTF-8", i)
				}
				if i < len(chunks)-1 && n != size {
					t.Errorf("chunk %d has %d chars, want %d", i, n, size)
				}
				if n == 0 || n > size {
					t.Errorf("chunk %d has %d chars", i, n)
				}
			}
			if total != utf8.RuneCountInString(tt.text) {
				t.Errorf("total length got %d, want %d", total, utf8.RuneCountInString(tt.text))
			}
		})
	}
}

func TestSplitKeepsDocumentOrder(t *testing.T) {
	text := strings.Repeat("A", 800) + strings.Repeat("B", 800) + strings.Repeat("C", 800)
	chunks := Split(text, DefaultSize)
	if len(chunks) != 3 {
		t.Fatalf("count got %d, want 3", len(chunks))
	}
	for i, letter := range []string{"A", "B", "C"} {
		if chunks[i] != strings.Repeat(letter, 800) {
			t.Errorf("chunk %d is not all %s", i, letter)
		}
	}
}
