// Package output renders the operator-facing installer transcript.
//
// All user-visible text goes through a [Printer]. Styling uses lipgloss with a
// renderer bound to the destination writer, so output redirected to a file or
// captured in a test buffer degrades to plain text without escape codes.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

// Status glyphs. Each is padded so messages line up in one column.
const (
	glyphSuccess = "  ✓  "
	glyphInfo    = "  →  "
	glyphWarning = "  ⚠  "
	glyphError   = "  ✗  "
)

// DryRunMarker prefixes every simulated command line.
const DryRunMarker = "[dry-run]"

// Row is one key/value line of a [Printer.KVBox].
type Row struct {
	Key   string
	Value string
}

type styles struct {
	banner   lipgloss.Style
	subtitle lipgloss.Style
	step     lipgloss.Style
	success  lipgloss.Style
	info     lipgloss.Style
	warning  lipgloss.Style
	err      lipgloss.Style
	muted    lipgloss.Style
	box      lipgloss.Style
	boxTitle lipgloss.Style
	key      lipgloss.Style
	dryRun   lipgloss.Style
	prompt   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		banner: r.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2),
		subtitle: r.NewStyle().Foreground(colorMuted),
		step:     r.NewStyle().Bold(true).Foreground(colorAccent),
		success:  r.NewStyle().Foreground(colorSuccess),
		info:     r.NewStyle().Foreground(colorPrimary),
		warning:  r.NewStyle().Foreground(colorWarning),
		err:      r.NewStyle().Bold(true).Foreground(colorError),
		muted:    r.NewStyle().Foreground(colorMuted),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
		boxTitle: r.NewStyle().Bold(true).Foreground(colorPrimary),
		key:      r.NewStyle().Bold(true),
		dryRun:   r.NewStyle().Foreground(colorWarning),
		prompt:   r.NewStyle().Bold(true).Foreground(colorWarning),
	}
}

// Printer writes styled transcript lines. Create with [NewPrinter] or
// [NewPrinterWithWriter]. The zero value is not usable.
type Printer struct {
	out    io.Writer
	styles styles
}

// NewPrinter returns a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter returns a [Printer] writing to w. Color support is
// detected from w itself.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		out:    w,
		styles: newStyles(lipgloss.NewRenderer(w)),
	}
}

// Writer exposes the destination, for interactive tools that need the
// terminal directly.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Banner prints the program title, with an optional subtitle underneath.
func (p *Printer) Banner(title, subtitle string) {
	fmt.Fprintln(p.out, p.styles.banner.Render(title))
	if subtitle != "" {
		fmt.Fprintln(p.out, p.styles.subtitle.Render(subtitle))
	}
	fmt.Fprintln(p.out)
}

// StepHeader announces step n of total.
func (p *Printer) StepHeader(n, total int, title string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.styles.step.Render(fmt.Sprintf("[%d/%d] %s", n, total, title)))
	fmt.Fprintln(p.out, p.styles.muted.Render(strings.Repeat("─", 48)))
}

func (p *Printer) Success(format string, args ...any) {
	p.line(p.styles.success, glyphSuccess, format, args...)
}

func (p *Printer) Info(format string, args ...any) {
	p.line(p.styles.info, glyphInfo, format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.line(p.styles.warning, glyphWarning, format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.line(p.styles.err, glyphError, format, args...)
}

func (p *Printer) line(style lipgloss.Style, glyph, format string, args ...any) {
	fmt.Fprintln(p.out, style.Render(glyph+fmt.Sprintf(format, args...)))
}

// KVBox prints rows as an aligned key/value table inside a rounded border.
func (p *Printer) KVBox(title string, rows []Row) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Key))
	}

	lines := make([]string, 0, len(rows)+2)
	if title != "" {
		lines = append(lines, p.styles.boxTitle.Render(title), "")
	}
	for _, r := range rows {
		key := p.styles.key.Render(fmt.Sprintf("%-*s", width, r.Key))
		lines = append(lines, key+"  "+r.Value)
	}
	fmt.Fprintln(p.out, p.styles.box.Render(strings.Join(lines, "\n")))
}

// DryRun prints the command line a simulated invocation would have run.
func (p *Printer) DryRun(commandLine string) {
	fmt.Fprintln(p.out, p.styles.dryRun.Render("  "+DryRunMarker+" "+commandLine))
}

// Prompt prints a question without a trailing newline.
func (p *Printer) Prompt(text string) {
	fmt.Fprint(p.out, p.styles.prompt.Render(text)+" ")
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.out)
}
