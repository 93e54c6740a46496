package token

import (
	"iter"
	"log/slog"
	"math/bits"
)

// Span is a half-open range of byte offsets into the source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies within s.
// An empty span contains its own start offset.
func (s Span) Contains(offset int) bool {
	if s.Start == s.End {
		return offset == s.Start
	}

	return offset >= s.Start && offset < s.End
}

// Cover returns the smallest span enclosing both s and t.
func (s Span) Cover(t Span) Span {
	return Span{Start: min(s.Start, t.Start), End: max(s.End, t.End)}
}

// LogValue renders the span as a compact group for structured logs.
func (s Span) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("start", s.Start), slog.Int("end", s.End))
}

// Token is a kind-tagged span of source text.
type Token struct {
	Text string
	Span
	Kind Kind
}

// Set is a set of token kinds. The zero value is empty.
type Set [2]uint64

// Of returns the set containing kinds.
func Of(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s[k/64] |= 1 << (k % 64)
	}

	return s
}

// Has reports whether k is a member of s.
func (s Set) Has(k Kind) bool { return s[k/64]&(1<<(k%64)) != 0 }

// Union returns the kinds present in either s or t.
func (s Set) Union(t Set) Set { return Set{s[0] | t[0], s[1] | t[1]} }

// Without returns s with kinds removed.
func (s Set) Without(kinds ...Kind) Set {
	r := Of(kinds...)

	return Set{s[0] &^ r[0], s[1] &^ r[1]}
}

// Len returns the number of kinds in s.
func (s Set) Len() int { return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1]) }

// All yields the members of s in ascending order.
func (s Set) All() iter.Seq[Kind] {
	return func(yield func(Kind) bool) {
		for k := Kind(0); k < numKinds; k++ {
			if s.Has(k) && !yield(k) {
				return
			}
		}
	}
}

// Predefined hint sets.
var (
	// Any contains every kind.
	Any = func() Set {
		var s Set
		for k := Kind(0); k < numKinds; k++ {
			s = s.Union(Of(k))
		}

		return s
	}()

	// CodeKinds contains every kind valid outside of string content.
	CodeKinds = Any.Without(
		StringContent, StringEnd, EscapeSequence,
		IndentedStringContent, IndentedStringEnd,
	)

	// StringParts contains the kinds that may follow a quoted string opener.
	StringParts = Of(StringContent, EscapeSequence, InterpolationStart, StringEnd)

	// IndentedStringParts contains the kinds that may follow an indented
	// string opener.
	IndentedStringParts = Of(IndentedStringContent, InterpolationStart, IndentedStringEnd)
)
