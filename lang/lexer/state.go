package lexer

import (
	"encoding/binary"
	"log/slog"
	"slices"
)

// Mode selects how characters at the cursor are grouped into tokens.
type Mode uint8

const (
	ModeCode     Mode = iota // code
	ModeString               // string
	ModeIndented             // indented_string
)

func (m Mode) String() string {
	switch m {
	case ModeCode:
		return "code"
	case ModeString:
		return "string"
	case ModeIndented:
		return "indented_string"
	default:
		return "mode(?)"
	}
}

// Frame is one level of lexical nesting.
//
// Code frames above the document frame are interpolations; their Brace
// count starts at 1 for the opening "${" and the frame closes when a "}"
// would bring it to zero. Start is the offset of the construct that opened
// the frame.
type Frame struct {
	Brace int
	Paren int
	Start int
	Mode  Mode
}

// State is the nesting stack of a lexer. The zero value is not usable;
// call [NewState].
//
// A State is owned by one lexer. Snapshots handed to other parties must be
// made with [State.Clone] or [State.MarshalBinary].
type State struct {
	frames []Frame
}

// NewState returns a state holding only the document's code frame.
func NewState() *State {
	return &State{frames: []Frame{{Mode: ModeCode}}}
}

// Reset discards every frame except the document frame.
func (s *State) Reset() {
	s.frames = append(s.frames[:0], Frame{Mode: ModeCode})
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	return &State{frames: slices.Clone(s.frames)}
}

// Equal reports whether s and t hold identical stacks.
func (s *State) Equal(t *State) bool { return slices.Equal(s.frames, t.frames) }

// Frames returns a copy of the frame stack, outermost first.
func (s *State) Frames() []Frame { return slices.Clone(s.frames) }

// Depth returns the number of frames, including the document frame.
func (s *State) Depth() int { return len(s.frames) }

// Top returns the innermost frame.
func (s *State) Top() Frame { return s.frames[len(s.frames)-1] }

func (s *State) top() *Frame { return &s.frames[len(s.frames)-1] }

// InString reports whether the innermost frame is a quoted string.
func (s *State) InString() bool { return s.Top().Mode == ModeString }

// InIndentedString reports whether the innermost frame is an indented string.
func (s *State) InIndentedString() bool { return s.Top().Mode == ModeIndented }

// InterpolationDepth returns the number of open "${" levels.
func (s *State) InterpolationDepth() int {
	n := 0

	for _, f := range s.frames[1:] {
		if f.Mode == ModeCode {
			n++
		}
	}

	return n
}

// BraceDepth returns the brace count of the innermost frame.
func (s *State) BraceDepth() int { return s.Top().Brace }

// ParenDepth returns the parenthesis count of the innermost frame.
func (s *State) ParenDepth() int { return s.Top().Paren }

func (s *State) push(m Mode, start int) {
	f := Frame{Mode: m, Start: start}
	if m == ModeCode {
		f.Brace = 1
	}

	s.frames = append(s.frames, f)
}

func (s *State) pop() Frame {
	f := s.Top()
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}

	return f
}

// closesInterpolation reports whether a "}" at the cursor ends the
// innermost interpolation.
func (s *State) closesInterpolation() bool {
	return len(s.frames) > 1 && s.Top().Mode == ModeCode && s.Top().Brace == 1
}

// stateVersion prefixes every encoded state.
const stateVersion byte = 1

// AppendBinary appends the encoding of s to b.
//
// The encoding is a version byte, the frame count, then each frame's mode
// byte followed by its brace, paren and start counters. Counts are
// unsigned varints, so the size grows with nesting instead of capping it.
func (s *State) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, stateVersion)
	b = binary.AppendUvarint(b, uint64(len(s.frames)))

	for _, f := range s.frames {
		b = append(b, byte(f.Mode))
		b = binary.AppendUvarint(b, uint64(f.Brace))
		b = binary.AppendUvarint(b, uint64(f.Paren))
		b = binary.AppendUvarint(b, uint64(f.Start))
	}

	return b, nil
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (s *State) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, 2+4*len(s.frames)))
}

// UnmarshalBinary implements [encoding.BinaryUnmarshaler]. The receiver is
// left unchanged when data is malformed.
func (s *State) UnmarshalBinary(data []byte) error {
	frames, n, err := decodeFrames(data)
	if err != nil {
		return err
	}

	if n != len(data) {
		return ErrStateCorrupt.With(slog.Int("trailing", len(data)-n))
	}

	s.frames = frames

	return nil
}

// Serialize writes the encoding of s into dst and returns the number of
// bytes written. It fails with [ErrStateOverflow] when dst is too small.
func (s *State) Serialize(dst []byte) (int, error) {
	b, _ := s.AppendBinary(nil)
	if len(b) > len(dst) {
		return 0, ErrStateOverflow.With(
			slog.Int("need", len(b)),
			slog.Int("have", len(dst)),
		)
	}

	return copy(dst, b), nil
}

// Deserialize restores s from the leading bytes of src, as produced by
// [State.Serialize], and returns the number of bytes consumed.
func (s *State) Deserialize(src []byte) (int, error) {
	frames, n, err := decodeFrames(src)
	if err != nil {
		return 0, err
	}

	s.frames = frames

	return n, nil
}

func decodeFrames(data []byte) ([]Frame, int, error) {
	if len(data) == 0 || data[0] != stateVersion {
		return nil, 0, ErrStateCorrupt.With(slog.String("reason", "version"))
	}

	pos := 1

	uvarint := func() (int, bool) {
		v, n := binary.Uvarint(data[pos:])
		if n <= 0 || v > uint64(maxInt) {
			return 0, false
		}

		pos += n

		return int(v), true
	}

	count, ok := uvarint()
	if !ok || count == 0 || count > len(data) {
		return nil, 0, ErrStateCorrupt.With(slog.String("reason", "frame count"))
	}

	frames := make([]Frame, 0, count)

	for range count {
		if pos >= len(data) || Mode(data[pos]) > ModeIndented {
			return nil, 0, ErrStateCorrupt.With(slog.String("reason", "mode"))
		}

		f := Frame{Mode: Mode(data[pos])}
		pos++

		var okb, okp, oks bool

		f.Brace, okb = uvarint()
		f.Paren, okp = uvarint()
		f.Start, oks = uvarint()

		if !okb || !okp || !oks {
			return nil, 0, ErrStateCorrupt.With(slog.String("reason", "counter"))
		}

		frames = append(frames, f)
	}

	if frames[0].Mode != ModeCode {
		return nil, 0, ErrStateCorrupt.With(slog.String("reason", "document frame"))
	}

	return frames, pos, nil
}

const maxInt = int(^uint(0) >> 1)
