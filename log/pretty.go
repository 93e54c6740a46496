package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Colors are dropped when the
// output is not a terminal.
type palette struct {
	key, str, num, dur, time, src, msg lipgloss.Style
	yes, no                            lipgloss.Style
	levels                             map[Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }
	level := func(c string) lipgloss.Style { return fg(c).Bold(true).Width(5) }

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		dur:  fg("5"),
		time: fg("8"),
		src:  fg("8").Italic(true),
		msg:  r.NewStyle().Bold(true),
		yes:  fg("2"),
		no:   fg("1"),
		levels: map[Level]lipgloss.Style{
			LevelTrace: level("4"),
			LevelDebug: level("6"),
			LevelInfo:  level("2"),
			LevelWarn:  level("3"),
			LevelError: level("1"),
		},
	}
}

func (p *palette) level(l Level) string {
	style, ok := p.levels[l]
	if !ok {
		// Offsets take the style of the named level below them.
		style = p.levels[LevelTrace]

		for _, named := range allLevels {
			if named <= l {
				style = p.levels[named]
			}
		}
	}

	return style.Render(l.String())
}

// prettyHandler writes one styled line per record:
//
//	time level message key=value ...
type prettyHandler struct {
	opts       *slog.HandlerOptions
	formatTime FormatTime
	palette    *palette
	mu         *sync.Mutex
	w          io.Writer
	attrs      string // rendered attrs added with WithAttrs
	group      string // key prefix from WithGroup
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, formatTime FormatTime) *prettyHandler {
	return &prettyHandler{
		opts:       opts,
		formatTime: formatTime,
		palette:    newPalette(w),
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			buf.WriteString(h.palette.time.Render(ts))
			buf.WriteByte(' ')
		}
	}

	buf.WriteString(h.palette.level(Level(r.Level)))

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			buf.WriteByte(' ')
			buf.WriteString(h.palette.src.Render(shortFile(src.File) + ":" + strconv.Itoa(src.Line)))
		}
	}

	buf.WriteByte(' ')
	buf.WriteString(h.palette.msg.Render(r.Message))
	buf.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.group, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var buf bytes.Buffer

	buf.WriteString(h.attrs)

	for _, a := range attrs {
		h.writeAttr(&buf, h.group, a)
	}

	clone := *h
	clone.attrs = buf.String()

	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.group = h.group + name + "."

	return &clone
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, prefix, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.palette.key.Render(prefix + a.Key + "="))
	buf.WriteString(h.value(a.Value))
}

func (h *prettyHandler) value(v slog.Value) string {
	p := h.palette

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(quote(v.String()))

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.num.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(h.formatTime(v.Time()))
	}

	if err, ok := v.Any().(error); ok {
		return p.no.Render(quote(err.Error()))
	}

	return p.str.Render(quote(v.String()))
}

// quote quotes s only when it would not read back as a single token.
func quote(s string) string {
	if s == "" {
		return `""`
	}

	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '=' || !unicode.IsPrint(r)
	}) >= 0 {
		return strconv.Quote(s)
	}

	return s
}

// shortFile trims a source path to its directory and file name.
func shortFile(path string) string {
	if i := strings.LastIndexByte(path, '/'); i > 0 {
		if j := strings.LastIndexByte(path[:i], '/'); j >= 0 {
			return path[j+1:]
		}
	}

	return path
}
