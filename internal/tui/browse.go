// Package tui implements the interactive capture file browser.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vburojevic/xctap/internal/capture"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Open   key.Binding
	Back   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type filesLoadedMsg struct {
	files []capture.FileInfo
}

type contentLoadedMsg struct {
	path    string
	content string
}

type errMsg struct {
	err error
}

// Model is the bubbletea model for browsing capture files. The list shows
// files newest first; enter opens the selected file in a viewport.
type Model struct {
	store *capture.FileStore
	clock clock.Clock

	files   []capture.FileInfo
	cursor  int
	viewing bool
	opened  string

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	err      error
}

// New creates a browser over the given store. A nil clock uses wall time.
func New(store *capture.FileStore, clk clock.Clock) Model {
	if clk == nil {
		clk = clock.New()
	}
	return Model{store: store, clock: clk}
}

func (m Model) Init() tea.Cmd {
	return m.loadFiles
}

func (m Model) loadFiles() tea.Msg {
	files, err := m.store.List()
	if err != nil {
		return errMsg{err: err}
	}
	return filesLoadedMsg{files: files}
}

func (m Model) loadContent(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := m.store.ReadAll(path)
		if err != nil {
			return errMsg{err: err}
		}
		return contentLoadedMsg{path: path, content: string(data)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Two chrome lines: title and status bar.
		contentHeight := msg.Height - 2
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		return m, nil

	case filesLoadedMsg:
		m.files = msg.files
		m.err = nil
		if m.cursor >= len(m.files) {
			m.cursor = len(m.files) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case contentLoadedMsg:
		m.viewing = true
		m.opened = msg.path
		m.err = nil
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.viewing {
			return m.updateViewing(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Top):
		m.cursor = 0
	case key.Matches(msg, keys.Bottom):
		if len(m.files) > 0 {
			m.cursor = len(m.files) - 1
		}
	case key.Matches(msg, keys.Open):
		if m.cursor < len(m.files) {
			return m, m.loadContent(m.files[m.cursor].Path)
		}
	case key.Matches(msg, keys.Reload):
		return m, m.loadFiles
	}
	return m, nil
}

func (m Model) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		m.viewing = false
		m.opened = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.viewing {
		return m.viewingView()
	}
	return m.listView()
}

func (m Model) listView() string {
	title := titleStyle.Render(fmt.Sprintf("xctap captures — %s", m.store.Dir()))

	var rows []string
	if len(m.files) == 0 {
		rows = append(rows, dimStyle.Render("  no capture files"))
	}
	now := m.clock.Now()
	maxRows := m.height - 2
	for i, f := range m.files {
		if i >= maxRows {
			break
		}
		row := fmt.Sprintf("  %-8s %8s  %s", formatAge(now.Sub(f.ModTime)), formatSize(f.Size), describeFile(f))
		if i == m.cursor {
			row = selectedStyle.Render(">" + row[1:])
		}
		rows = append(rows, row)
	}

	status := fmt.Sprintf(" %d files | enter open · r reload · q quit", len(m.files))
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf(" error: %v", m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(rows, "\n"),
		dimStyle.Render(status),
	)
}

func (m Model) viewingView() string {
	title := titleStyle.Render(filepath.Base(m.opened))
	status := dimStyle.Render(" esc back · j/k scroll · q quit")
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf(" error: %v", m.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.viewport.View(),
		status,
	)
}

// describeFile renders the identifying part of a list row. Files with a
// header show app and target; headerless ones fall back to the file name.
func describeFile(f capture.FileInfo) string {
	if !f.HasHeader {
		return filepath.Base(f.Path)
	}
	parts := []string{f.Header.App}
	if f.Header.Target != "" {
		parts = append(parts, f.Header.Target)
	}
	if f.Header.Mode != "" {
		parts = append(parts, f.Header.Mode)
	}
	return strings.Join(parts, "  ")
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func formatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}
