package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors used by progress output.
type Theme struct {
	NoColor bool
	Primary string
	Success string
	Muted   string
}

// DefaultTheme returns the theme used by the CLI. NO_COLOR disables colors.
func DefaultTheme() *Theme {
	_, noColor := os.LookupEnv("NO_COLOR")
	return &Theme{
		NoColor: noColor,
		Primary: "#DF3A81",
		Success: "#70B580",
		Muted:   "#6C868E",
	}
}

// Steps reports the steps of one pipeline run.
type Steps interface {
	// Step marks the previous step finished and starts a new one.
	Step(title string)
	// Done marks the last step finished and releases the terminal.
	Done()
}

// NewSteps creates a Steps reporter for the given theme and headless
// manager. Output goes to os.Stdout.
func NewSteps(theme *Theme, hm *HeadlessManager) Steps {
	return newSteps(theme, hm, os.Stdout)
}

func newSteps(theme *Theme, hm *HeadlessManager, w io.Writer) Steps {
	if hm.IsHeadless() || theme.NoColor {
		return newHeadlessSteps(w)
	}
	return newInteractiveSteps(theme, w)
}

// --- interactiveSteps ---

// stepMsg starts a new step.
type stepMsg string

// stepsDoneMsg stops the spinner.
type stepsDoneMsg struct{}

// stepsModel is the bubbletea Model rendering finished steps and a spinner
// on the current one.
type stepsModel struct {
	spinner  spinner.Model
	check    lipgloss.Style
	finished []string
	current  string
	done     bool
}

func newStepsModel(theme *Theme) stepsModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	check := lipgloss.NewStyle()
	if !theme.NoColor {
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))
		check = check.Foreground(lipgloss.Color(theme.Success))
	}
	return stepsModel{spinner: s, check: check}
}

func (m stepsModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m stepsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		if m.current != "" {
			m.finished = append(m.finished, m.current)
		}
		m.current = string(msg)
		return m, nil
	case stepsDoneMsg:
		if m.current != "" {
			m.finished = append(m.finished, m.current)
			m.current = ""
		}
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m stepsModel) View() string {
	var out string
	for _, s := range m.finished {
		out += m.check.Render("✓") + " " + s + "\n"
	}
	if !m.done && m.current != "" {
		out += m.spinner.View() + " " + m.current + "\n"
	}
	return out
}

// interactiveSteps runs the steps model in its own tea.Program.
type interactiveSteps struct {
	program *tea.Program
	once    sync.Once
}

func newInteractiveSteps(theme *Theme, w io.Writer) *interactiveSteps {
	p := tea.NewProgram(newStepsModel(theme), tea.WithOutput(w), tea.WithInput(nil))
	s := &interactiveSteps{program: p}

	go func() {
		_, _ = p.Run()
	}()

	return s
}

// Step starts a new step.
func (s *interactiveSteps) Step(title string) {
	s.program.Send(stepMsg(title))
}

// Done stops the spinner and waits for the program to exit.
func (s *interactiveSteps) Done() {
	s.once.Do(func() {
		s.program.Send(stepsDoneMsg{})
		s.program.Wait()
	})
}

// --- headlessSteps ---

// headlessSteps writes one line per step.
type headlessSteps struct {
	writer io.Writer
	count  int
}

func newHeadlessSteps(w io.Writer) *headlessSteps {
	return &headlessSteps{writer: w}
}

// Step prints the step title.
func (s *headlessSteps) Step(title string) {
	s.count++
	_, _ = fmt.Fprintf(s.writer, "[%d] %s\n", s.count, title)
}

// Done is a no-op for line output.
func (s *headlessSteps) Done() {}
