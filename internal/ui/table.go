package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	pkgtypes "github.com/vietdv277/cwtail/pkg/types"
)

// cell is one styled table cell
type cell struct {
	text  string
	style lipgloss.Style
}

// renderTable renders a box table with a header row
func renderTable(headers []string, widths []int, rows [][]cell) string {
	var sb strings.Builder

	border := func(left, mid, right string) {
		sb.WriteString(BorderStyle.Render(left))
		for i, w := range widths {
			sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
			if i < len(widths)-1 {
				sb.WriteString(BorderStyle.Render(mid))
			}
		}
		sb.WriteString(BorderStyle.Render(right))
		sb.WriteString("\n")
	}

	// Top border
	border(TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		sb.WriteString(HeaderStyle.Render(" " + padRight(h, widths[i]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	// Header separator
	border(LeftT, Cross, RightT)

	// Data rows
	for _, row := range rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		for i, c := range row {
			sb.WriteString(c.style.Render(" " + padRight(c.text, widths[i]) + " "))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	// Bottom border
	border(BottomLeft, BottomT, BottomRight)

	return sb.String()
}

// PrintSourceTable prints the configured log sources
func PrintSourceTable(w io.Writer, sources []pkgtypes.LogSource) {
	headers := []string{"Name", "Log Group", "Color"}
	widths := []int{20, 56, 10}

	rows := make([][]cell, 0, len(sources))
	for _, s := range sources {
		colorName := s.Color
		if colorName == "" {
			colorName = "default"
		}
		rows = append(rows, []cell{
			{s.Name, lipgloss.NewStyle().Foreground(SourceColor(s.Color))},
			{s.LogGroup, GroupStyle},
			{colorName, MutedStyle},
		})
	}

	fmt.Fprint(w, renderTable(headers, widths, rows))
	fmt.Fprintf(w, "  %d sources\n", len(sources))
}

// StreamStatus is the one-shot state of a source's latest stream
type StreamStatus struct {
	Source        pkgtypes.LogSource
	Stream        string
	LastEventTime time.Time
	Err           error
}

// PrintStreamStatusTable prints the latest stream of each source
func PrintStreamStatusTable(w io.Writer, statuses []StreamStatus) {
	headers := []string{"Source", "Latest Stream", "Last Event"}
	widths := []int{20, 52, 19}

	rows := make([][]cell, 0, len(statuses))
	for _, st := range statuses {
		nameCell := cell{st.Source.Name, lipgloss.NewStyle().Foreground(SourceColor(st.Source.Color))}

		switch {
		case st.Err != nil:
			rows = append(rows, []cell{nameCell, {"✗ " + st.Err.Error(), ErrorStyle}, {"-", MutedStyle}})
		case st.Stream == "":
			rows = append(rows, []cell{nameCell, {"No log streams found", WarningStyle}, {"-", MutedStyle}})
		default:
			last := "-"
			if !st.LastEventTime.IsZero() {
				last = st.LastEventTime.Local().Format("2006-01-02 15:04:05")
			}
			rows = append(rows, []cell{nameCell, {st.Stream, StreamStyle}, {last, OKStyle}})
		}
	}

	fmt.Fprint(w, renderTable(headers, widths, rows))
}
