package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	pkgtypes "github.com/vietdv277/cwtail/pkg/types"
)

const (
	listHeight   = 8
	minWidth     = 60
	maxWidth     = 120
	colWidthName = 22
)

// SourceModel is the bubbletea model for picking which sources to watch
type SourceModel struct {
	sources      []pkgtypes.LogSource
	filtered     []int // indexes into sources
	checked      map[int]bool
	cursor       int
	offset       int // for scrolling
	search       string
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int
}

// NewSourceModel creates a picker with every source checked
func NewSourceModel(sources []pkgtypes.LogSource) SourceModel {
	m := SourceModel{
		sources:   sources,
		checked:   make(map[int]bool, len(sources)),
		termWidth: 80,
	}
	for i := range sources {
		m.checked[i] = true
	}
	m.filterSources()
	m.calculateWidths()
	return m
}

func (m *SourceModel) calculateWidths() {
	m.contentWidth = m.termWidth - 2
	if m.contentWidth < minWidth {
		m.contentWidth = minWidth
	}
	if m.contentWidth > maxWidth {
		m.contentWidth = maxWidth
	}
}

// Init implements tea.Model
func (m SourceModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m SourceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.calculateWidths()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.Selected()) > 0 {
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeySpace:
			if len(m.filtered) > 0 {
				idx := m.filtered[m.cursor]
				m.checked[idx] = !m.checked[idx]
			}

		case tea.KeyCtrlA:
			all := true
			for _, idx := range m.filtered {
				if !m.checked[idx] {
					all = false
					break
				}
			}
			for _, idx := range m.filtered {
				m.checked[idx] = !all
			}

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+listHeight {
					m.offset = m.cursor - listHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterSources()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterSources()
		}
	}

	return m, nil
}

// filterSources filters the sources based on the search query
func (m *SourceModel) filterSources() {
	query := strings.ToLower(m.search)
	m.filtered = nil
	for i, s := range m.sources {
		if query == "" ||
			strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.LogGroup), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	// Reset cursor if out of bounds
	if m.cursor >= len(m.filtered) {
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		} else {
			m.cursor = 0
		}
	}
	// Keep the cursor inside the visible window
	m.offset = 0
	if m.cursor >= listHeight {
		m.offset = m.cursor - listHeight + 1
	}
}

// Selected returns the checked sources in configured order
func (m SourceModel) Selected() []pkgtypes.LogSource {
	var out []pkgtypes.LogSource
	for i, s := range m.sources {
		if m.checked[i] {
			out = append(out, s)
		}
	}
	return out
}

// View implements tea.Model
func (m SourceModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	emptyLine := func() {
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString(strings.Repeat(" ", w))
		sb.WriteString(BorderStyle.Render(Vertical))
		sb.WriteString("\n")
	}

	// Top border
	sb.WriteString(BorderStyle.Render(TopLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(TopRight))
	sb.WriteString("\n")

	// Search input
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString(NameStyle.Render(padRight(" > "+m.search, w)))
	sb.WriteString(BorderStyle.Render(Vertical))
	sb.WriteString("\n")
	emptyLine()

	visibleEnd := m.offset + listHeight
	if visibleEnd > len(m.filtered) {
		visibleEnd = len(m.filtered)
	}
	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderSourceRow(i))
	}

	// Fill remaining lines if list is short
	for i := visibleEnd; i < m.offset+listHeight; i++ {
		emptyLine()
	}

	// Bottom border
	sb.WriteString(BorderStyle.Render(BottomLeft))
	sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w)))
	sb.WriteString(BorderStyle.Render(BottomRight))
	sb.WriteString("\n")

	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m SourceModel) renderSourceRow(pos int) string {
	idx := m.filtered[pos]
	src := m.sources[idx]
	w := m.contentWidth

	var line strings.Builder
	plainWidth := 0

	// Cursor indicator and checkbox (7 chars)
	prefix := "   "
	if pos == m.cursor {
		prefix = " > "
	}
	box := "[ ] "
	if m.checked[idx] {
		box = "[x] "
	}
	line.WriteString(prefix)
	line.WriteString(OKStyle.Render(box))
	plainWidth += 7

	nameText := padRight(src.Name, colWidthName)
	line.WriteString(lipgloss.NewStyle().Foreground(SourceColor(src.Color)).Render(nameText))
	line.WriteString("  ")
	plainWidth += colWidthName + 2

	groupWidth := w - plainWidth - 1
	if groupWidth < 10 {
		groupWidth = 10
	}
	groupText := padRight(src.LogGroup, groupWidth)
	line.WriteString(MutedStyle.Render(groupText))
	plainWidth += groupWidth

	if plainWidth < w {
		line.WriteString(strings.Repeat(" ", w-plainWidth))
	}

	return BorderStyle.Render(Vertical) + line.String() + BorderStyle.Render(Vertical) + "\n"
}

func (m SourceModel) renderStatusBar() string {
	w := m.contentWidth + 2

	countInfo := fmt.Sprintf("  %d/%d sources selected", len(m.Selected()), len(m.sources))
	hintsPlain := "[Space:toggle] [Ctrl+A:all] [Enter:watch] [Esc:cancel]"

	padding := w - runewidth.StringWidth(countInfo) - runewidth.StringWidth(hintsPlain)

	var sb strings.Builder
	sb.WriteString(countInfo)
	if padding > 0 {
		sb.WriteString(strings.Repeat(" ", padding))
	}
	sb.WriteString(HintStyle.Render(hintsPlain))
	sb.WriteString("\n")
	return sb.String()
}

// SelectSources displays an interactive picker and returns the chosen sources
func SelectSources(sources []pkgtypes.LogSource) ([]pkgtypes.LogSource, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources available")
	}

	p := tea.NewProgram(NewSourceModel(sources))

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(SourceModel)
	if result.cancelled {
		return nil, fmt.Errorf("selection cancelled")
	}

	return result.Selected(), nil
}
