package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles are bound to a
// renderer for the handler's writer, so colors are dropped when the writer
// is not a color terminal.
type palette struct {
	key      lipgloss.Style
	text     lipgloss.Style
	number   lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	duration lipgloss.Style
	time     lipgloss.Style
	null     lipgloss.Style
	levels   map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:      fg("8"),
		text:     fg("6"),
		number:   fg("3"),
		yes:      fg("2"),
		no:       fg("1"),
		duration: fg("5"),
		time:     fg("4"),
		null:     fg("8"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("8"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2"),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p *palette) level(l slog.Level) string {
	name := strings.ToUpper(Level(l).String())

	// Offsets such as WARN+2 take the style of the nearest lower level.
	for _, base := range []slog.Level{
		slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug,
	} {
		if l >= base {
			return p.levels[base].Render(name)
		}
	}

	return p.levels[slog.Level(LevelTrace)].Render(name)
}

func (p *palette) value(v slog.Value, quote bool) string {
	switch v.Kind() {
	case slog.KindString:
		if quote {
			return p.text.Render(strconv.Quote(v.String()))
		}

		return p.text.Render(v.String())

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.number.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.duration.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(v.Time().Format(DefaultTimeLayout))

	default:
		if v.Any() == nil {
			return p.null.Render("null")
		}

		s := fmt.Sprint(v.Any())
		if quote {
			s = strconv.Quote(s)
		}

		return p.text.Render(s)
	}
}

// field is a rendered key and value.
type field struct{ key, value string }

// prettyHandler writes colorized records either as one `key=value` line or as
// an indented, JSON-like block.
type prettyHandler struct {
	opts       slog.HandlerOptions
	mu         *sync.Mutex
	w          io.Writer
	pal        *palette
	formatTime FormatTime
	prefix     string
	attrs      []field
	block      bool
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, pal: newPalette(w), formatTime: ft}
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions, ft FormatTime) *prettyHandler {
	h := newPrettyTextHandler(w, opts, ft)
	h.block = true

	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if ts := h.formatTime(r.Time); ts != "" {
			fields = append(fields, field{slog.TimeKey, h.pal.time.Render(ts)})
		}
	}

	fields = append(fields, field{slog.LevelKey, h.pal.level(r.Level)})

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			fields = append(fields, field{
				slog.SourceKey,
				h.pal.text.Render(fmt.Sprintf("%s:%d", src.File, src.Line)),
			})
		}
	}

	fields = append(fields, field{slog.MessageKey, h.pal.value(slog.StringValue(r.Message), h.block)})
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.appendAttr(fields, h.prefix, a)

		return true
	})

	var b strings.Builder

	if h.block {
		b.WriteString("{\n")

		for i, f := range fields {
			if i > 0 {
				b.WriteString(",\n")
			}

			b.WriteString("  " + h.pal.key.Render(f.key) + ": " + f.value)
		}

		b.WriteString("\n}\n")
	} else {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(' ')
			}

			b.WriteString(h.pal.key.Render(f.key) + "=" + f.value)
		}

		b.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, b.String())

	return err
}

// appendAttr renders a, flattening groups into dotted keys.
func (h *prettyHandler) appendAttr(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()

	if rep := h.opts.ReplaceAttr; rep != nil && a.Value.Kind() != slog.KindGroup {
		a = rep(nil, a)
	}

	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			fields = h.appendAttr(fields, sub, ga)
		}

		return fields
	}

	return append(fields, field{prefix + a.Key, h.pal.value(a.Value, h.block)})
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]field(nil), h.attrs...)

	for _, a := range attrs {
		c.attrs = h.appendAttr(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}
