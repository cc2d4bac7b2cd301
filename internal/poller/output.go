package poller

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietdv277/cwtail/internal/ui"
	"github.com/vietdv277/cwtail/pkg/types"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separatorWidth  = 60

	msgNoStreams = "No log streams found"
	msgNoRecent  = "No recent messages"
	msgNoNew     = "No new messages"
	msgStopped   = "Log poller stopped"
)

type lineKind int

const (
	kindRecord lineKind = iota
	kindStatus
	kindError
)

// line is one output line belonging to a source
type line struct {
	source int
	kind   lineKind
	text   string
}

// Printer writes poller output one complete line per Write call
type Printer struct {
	mu        sync.Mutex
	w         io.Writer
	names     []string
	tags      []lipgloss.Style
	header    lipgloss.Style
	status    lipgloss.Style
	errStyle  lipgloss.Style
	separator lipgloss.Style
}

// NewPrinter creates a printer for the given sources. Colors are only
// emitted when w is a terminal.
func NewPrinter(w io.Writer, sources []types.LogSource) *Printer {
	r := lipgloss.NewRenderer(w)

	p := &Printer{
		w:         w,
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color(ui.ColorHeader)),
		status:    r.NewStyle().Foreground(lipgloss.Color(ui.ColorHint)),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color(ui.ColorError)),
		separator: r.NewStyle().Foreground(lipgloss.Color(ui.ColorBorder)),
	}
	for _, s := range sources {
		p.names = append(p.names, s.Name)
		p.tags = append(p.tags, r.NewStyle().Bold(true).Foreground(ui.SourceColor(s.Color)))
	}
	return p
}

func (p *Printer) writeLine(s string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, s+"\n")
	return err
}

// Header prints the cycle timestamp line
func (p *Printer) Header(t time.Time, sources int) error {
	return p.writeLine(p.header.Render(fmt.Sprintf("[%s] Polling %d sources", t.Format(timestampLayout), sources)))
}

// Separator prints the end-of-cycle separator
func (p *Printer) Separator() error {
	return p.writeLine(p.separator.Render(strings.Repeat(ui.Horizontal, separatorWidth)))
}

// Message prints a line that belongs to no source
func (p *Printer) Message(text string) error {
	return p.writeLine(p.status.Render(text))
}

func (p *Printer) print(lines []line) error {
	for _, l := range lines {
		if err := p.writeLine(p.format(l)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) format(l line) string {
	tag := p.tags[l.source].Render("[" + p.names[l.source] + "]")

	switch l.kind {
	case kindStatus:
		return tag + " " + p.status.Render(l.text)
	case kindError:
		return tag + " " + p.errStyle.Render(l.text)
	default:
		return tag + " " + l.text
	}
}

// normalizeMessage makes a log event fit on exactly one output line
func normalizeMessage(msg string) string {
	msg = strings.TrimRight(msg, " \t\r\n")
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	return strings.ReplaceAll(msg, "\n", " ↵ ")
}
