package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"svir/internal/diag"
	"svir/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	note, loc, bar  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		// не зависим от глобального color.NoColor
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:  mk(color.FgRed, color.Bold),
		warn: mk(color.FgYellow, color.Bold),
		info: mk(color.FgCyan),
		note: mk(color.FgGreen),
		loc:  mk(color.Bold),
		bar:  mk(color.FgBlue),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку контекста с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for _, d := range bag.Items() {
		sev := p.severity(d.Severity)
		if loc := location(fs, d.Primary, opts.PathMode, opts.BaseDir); loc != "" {
			b.WriteString(p.loc.Sprint(loc))
			b.WriteString(": ")
		}
		fmt.Fprintf(&b, "%s %s: %s\n", sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		if d.Severity > diag.SevInfo {
			p.excerpt(&b, fs, d.Primary, sev)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteString("  ")
			b.WriteString(p.note.Sprint("note"))
			if loc := location(fs, n.Span, opts.PathMode, opts.BaseDir); loc != "" {
				b.WriteString(" ")
				b.WriteString(p.loc.Sprint(loc))
			}
			fmt.Fprintf(&b, ": %s\n", n.Msg)
			if d.Severity > diag.SevInfo {
				p.excerpt(&b, fs, n.Span, p.note)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func location(fs *source.FileSet, sp source.Span, mode PathMode, baseDir string) string {
	if fs == nil {
		return ""
	}
	f := fs.Get(sp.File)
	if f == nil {
		return ""
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, mode, baseDir), start.Line, start.Col)
}

// excerpt prints the first line of sp and underlines it. Columns are
// display cells, so wide runes keep the caret aligned.
func (p palette) excerpt(b *strings.Builder, fs *source.FileSet, sp source.Span, mark *color.Color) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	stop = max(stop, col)

	pad := runewidth.StringWidth(untab(line[:col]))
	width := max(1, runewidth.StringWidth(untab(line[col:stop])))
	num := strconv.FormatUint(uint64(start.Line), 10)
	fmt.Fprintf(b, " %s %s %s\n", p.bar.Sprint(num), p.bar.Sprint("|"), untab(line))
	fmt.Fprintf(b, " %s %s %s%s\n", strings.Repeat(" ", len(num)), p.bar.Sprint("|"),
		strings.Repeat(" ", pad), mark.Sprint("^"+strings.Repeat("~", width-1)))
}

func untab(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
