package token

import (
	"fmt"
	"sort"
)

// Position is a human-readable source location.
// Line and Column are 1-based; Column counts bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// File indexes line starts of a source text so offsets can be converted to
// positions in logarithmic time.
type File struct {
	src   string
	lines []int
}

// NewFile returns the line index of src.
func NewFile(src string) *File {
	lines := []int{0}

	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &File{src: src, lines: lines}
}

// Position returns the position of offset, clamped to the source bounds.
func (f *File) Position(offset int) Position {
	offset = max(0, min(offset, len(f.src)))

	i := sort.SearchInts(f.lines, offset+1) - 1

	return Position{Offset: offset, Line: i + 1, Column: offset - f.lines[i] + 1}
}

// Line returns the text of the 1-based line n without its terminator.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}

	start := f.lines[n-1]

	end := len(f.src)
	if n < len(f.lines) {
		end = f.lines[n] - 1
	}

	if end > start && f.src[end-1] == '\r' {
		end--
	}

	return f.src[start:end]
}

// LineCount returns the number of lines in the source.
func (f *File) LineCount() int { return len(f.lines) }
