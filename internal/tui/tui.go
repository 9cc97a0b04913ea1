// Package tui holds the full-screen multiline editor used by text mode.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the editor without submitting.
var ErrCancelled = errors.New("input cancelled")

type Config struct {
	Title       string
	Placeholder string
	Initial     string
}

type model struct {
	config    Config
	textarea  textarea.Model
	width     int
	height    int
	submitted bool
	cancelled bool
	notice    string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Edit opens the editor and returns the submitted text.
func Edit(cfg Config) (string, error) {
	p := tea.NewProgram(newModel(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run editor: %w", err)
	}
	m, ok := final.(model)
	if !ok || !m.submitted {
		return "", ErrCancelled
	}
	return m.value(), nil
}

func newModel(cfg Config) model {
	if cfg.Title == "" {
		cfg.Title = "nGPT multiline editor"
	}
	ta := textarea.New()
	ta.Placeholder = cfg.Placeholder
	if ta.Placeholder == "" {
		ta.Placeholder = "Type your prompt..."
	}
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetHeight(10)
	ta.SetValue(cfg.Initial)
	ta.Focus()

	return model{config: cfg, textarea: ta}
}

func (m model) value() string {
	return strings.TrimSpace(m.textarea.Value())
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.value() == "" {
				m.notice = "Nothing to submit."
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
		m.notice = ""

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		m.textarea.SetWidth(msg.Width)
		if h := msg.Height - headerHeight - footerHeight; h > 3 {
			m.textarea.SetHeight(h)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	header := titleStyle.Render(m.config.Title) + "\n" + strings.Repeat("─", max(m.width, 1))
	footer := helpStyle.Render("ctrl+d submit • esc cancel")
	if m.notice != "" {
		footer = m.notice + "  " + footer
	}
	return header + "\n" + m.textarea.View() + "\n" + footer
}
