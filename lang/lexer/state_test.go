package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/nixsyn/lang/token"
)

// stateAt lexes src until the cursor reaches offset and returns the state.
func stateAt(t *testing.T, src string, offset int) *State {
	t.Helper()

	l := New(src)
	for l.Pos() < offset {
		tok, err := l.Next(l.Hint())
		require.NoError(t, err)
		require.NotEqual(t, token.EOF, tok.Kind)
	}

	return l.State()
}

func TestStateModes(t *testing.T) {
	s := NewState()
	assert.False(t, s.InString())
	assert.False(t, s.InIndentedString())

	s.push(ModeString, 0)
	assert.True(t, s.InString())
	assert.False(t, s.InIndentedString())

	s.push(ModeCode, 3)
	assert.False(t, s.InString())
	assert.Equal(t, 1, s.InterpolationDepth())
	assert.Equal(t, 1, s.BraceDepth())

	s.push(ModeIndented, 5)
	assert.True(t, s.InIndentedString())
	assert.False(t, s.InString())

	s.pop()
	s.pop()
	assert.True(t, s.InString())

	s.Reset()
	assert.Equal(t, 1, s.Depth())

	s.pop()
	assert.Equal(t, 1, s.Depth(), "document frame is never popped")
}

func TestStateBinaryRoundTrip(t *testing.T) {
	src := `"a${ { b = ''c${ [ ( "d${e`
	s := stateAt(t, src, len(src)-1)

	require.Greater(t, s.Depth(), 5)

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	restored := NewState()
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.True(t, s.Equal(restored))

	again, err := restored.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again, "re-serialization must be byte-identical")
}

func TestStateDeepNesting(t *testing.T) {
	const depth = 300

	src := strings.Repeat(`"${`, depth) + "x"
	s := stateAt(t, src, len(src))

	require.Equal(t, depth, s.InterpolationDepth())

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	restored := NewState()
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, depth, restored.InterpolationDepth())
	assert.Equal(t, s.Frames(), restored.Frames())
}

func TestStateSerialize(t *testing.T) {
	s := stateAt(t, `"${ "${ x`, 8)

	want, err := s.MarshalBinary()
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := s.Serialize(buf)
	require.NoError(t, err)
	assert.Equal(t, want, buf[:n])

	_, err = s.Serialize(make([]byte, len(want)-1))
	require.ErrorIs(t, err, ErrStateOverflow)

	restored := NewState()
	m, err := restored.Deserialize(buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.True(t, s.Equal(restored))
}

func TestStateCorrupt(t *testing.T) {
	valid, err := NewState().MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"version", []byte{9, 1, 0, 0, 0, 0}},
		{"zero frames", []byte{stateVersion, 0}},
		{"bad mode", []byte{stateVersion, 1, 7, 0, 0, 0}},
		{"string document frame", []byte{stateVersion, 1, byte(ModeString), 0, 0, 0}},
		{"truncated", valid[:len(valid)-1]},
		{"trailing", append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stateAt(t, `"a`, 1)
			before := s.Clone()

			err := s.UnmarshalBinary(tt.data)
			require.ErrorIs(t, err, ErrStateCorrupt)
			assert.True(t, before.Equal(s), "state must be unchanged on error")
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := stateAt(t, `{ "${`, 5)
	c := s.Clone()

	s.Reset()
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 3, c.Depth())
}
