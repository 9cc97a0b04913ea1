package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// spinnerModel shows a spinner until the wrapped call finishes.
type spinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
	done     bool
	err      error
}

type doneMsg struct{ err error }

// errInterrupted is reported when the user hits ctrl+c while waiting.
var errInterrupted = errors.New("interrupted")

func newSpinnerModel(message string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return spinnerModel{
		spinner: s,
		message: message,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.err = errInterrupted
			return m, tea.Quit
		}
	case doneMsg:
		m.done = true
		m.quitting = true
		m.err = msg.err
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}

// ExecuteWithSpinner runs executeFn while a spinner is drawn on stderr. If
// stderr is not a terminal the call runs without any decoration. When the
// user presses ctrl+c, onInterrupt is called (typically a context cancel)
// and the call's own result is still awaited.
func ExecuteWithSpinner[T any](message string, onInterrupt func(), executeFn func() (T, error)) (T, error) {
	if !IsTerminal(os.Stderr) {
		return executeFn()
	}

	var result T
	var execErr error
	finished := make(chan struct{})

	p := tea.NewProgram(newSpinnerModel(message), tea.WithOutput(os.Stderr))
	go func() {
		defer close(finished)
		result, execErr = executeFn()
		p.Send(doneMsg{err: execErr})
	}()

	final, err := p.Run()
	if err != nil {
		// The spinner could not take over the terminal; just wait.
		<-finished
		return result, execErr
	}
	if fm, ok := final.(spinnerModel); ok && !fm.done && errors.Is(fm.err, errInterrupted) && onInterrupt != nil {
		onInterrupt()
	}
	<-finished
	return result, execErr
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Logf returns the progress logger used by commands: lines prefixed with
// [ngpt] on w, or a no-op when quiet.
func Logf(w io.Writer, quiet bool) func(string) {
	return func(msg string) {
		if quiet {
			return
		}
		fmt.Fprintf(w, "[ngpt] %s\n", msg)
	}
}
