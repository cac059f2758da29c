// Package pager shows rendered tree output in a full-screen scrollable view.
package pager

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// header and footer lines around the viewport
const chromeHeight = 2

// Model is the pager Bubble Tea model.
type Model struct {
	Title  string
	Status string

	content string
	lines   int
	vp      viewport.Model
	ready   bool
	width   int
	keys    KeyMap

	headerStyle lipgloss.Style
	footerStyle lipgloss.Style
}

// New creates a pager over content, which may contain ANSI styling.
func New(title, content, status string) *Model {
	content = strings.TrimRight(content, "\n")
	return &Model{
		Title:   title,
		Status:  status,
		content: content,
		lines:   strings.Count(content, "\n") + 1,
		keys:    DefaultKeyMap(),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#282A36")),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - chromeHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, height)
			m.vp.SetContent(m.content)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if !m.ready {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.PageDown):
		m.scroll(m.vp.Height)
	case key.Matches(msg, m.keys.PageUp):
		m.scroll(-m.vp.Height)
	case key.Matches(msg, m.keys.Top):
		m.vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.vp.GotoBottom()
	}
	return m, nil
}

func (m *Model) scroll(n int) {
	m.vp.SetYOffset(m.vp.YOffset + n)
}

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.headerStyle.Render(ansi.Truncate(" "+m.Title, m.width, "…"))

	pos := fmt.Sprintf("%d lines  %3.0f%%", m.lines, m.vp.ScrollPercent()*100)
	footer := pos + "  " + m.keys.helpLine()
	if m.Status != "" {
		footer = m.Status + "  " + footer
	}
	footer = m.footerStyle.Render(ansi.Truncate(footer, m.width, "…"))

	return header + "\n" + m.vp.View() + "\n" + footer
}

// Run shows content until the user quits.
func Run(title, content, status string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(title, content, status),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	return err
}
