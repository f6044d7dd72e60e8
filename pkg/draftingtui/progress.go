package draftingtui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macropower/draftkit/pkg/drafting"
)

type modelState int

const (
	stateIdle modelState = iota
	stateWorking
	stateDone
	stateError
)

// completedMsg moves the model to its final state once the pre-quit delay
// has passed.
type completedMsg struct {
	err error
}

// ProgressModel displays the progress of a drafting command.
// Create instances with [NewProgressModel].
type ProgressModel struct {
	err       error
	failed    map[string]bool
	verb      string
	started   []string
	completed []string
	skipped   []string
	spinner   spinner.Model
	progress  progress.Model
	total     int
	width     int
	state     modelState
	mu        sync.RWMutex
	finishing bool
}

// NewProgressModel returns a model that labels work in progress with verb,
// such as "Plotting".
func NewProgressModel(verb string) *ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	s := spinner.New()
	s.Style = defaultStyles.spinner

	return &ProgressModel{
		verb:     verb,
		failed:   map[string]bool{},
		spinner:  s,
		progress: p,
	}
}

func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.progress.SetPercent(0))
}

//nolint:ireturn // Third-party.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if keyExits(msg) {
			return m, tea.Quit
		}

	case teaMsgWriteLog:
		return m, writeLog(msg, m.width)

	case drafting.EventSetTotal:
		m.total = int(msg)

	case drafting.EventStarted:
		m.state = stateWorking
		m.started = append(m.started, string(msg))

	case drafting.EventFinished:
		icon := defaultStyles.check
		if msg.Err != nil {
			m.failed[msg.Name] = true
			icon = defaultStyles.cross
		}
		m.completed = append(m.completed, msg.Name)

		return m, tea.Batch(
			m.progress.SetPercent(m.percent()),
			tea.Printf("%s %s", icon, msg.Name),
		)

	case drafting.EventSkipped:
		m.skipped = append(m.skipped, msg.Name)

		return m, tea.Batch(
			m.progress.SetPercent(m.percent()),
			tea.Printf("%s %s (%s)", defaultStyles.skip, msg.Name, msg.Reason),
		)

	case drafting.EventDone:
		if m.finishing {
			return m, nil
		}
		m.finishing = true

		return m, tea.Sequence(
			tea.Tick(preQuitDelay, func(_ time.Time) tea.Msg {
				return completedMsg{err: msg.Err}
			}),
			teaQuit(),
		)

	case completedMsg:
		if msg.err != nil {
			m.state = stateError
			m.err = msg.err
		} else {
			m.state = stateDone
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.progress = newModel
		}

		return m, cmd
	}

	return m, nil
}

func (m *ProgressModel) percent() float64 {
	if m.total == 0 {
		return 0
	}

	return float64(len(m.completed)+len(m.skipped)) / float64(m.total)
}

func (m *ProgressModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch m.state {
	case stateError:
		return getErrorMessage(m.err, m.width, m.total)

	case stateDone:
		msg := fmt.Sprintf("Done! Processed %d of %d.", len(m.completed), m.total)
		if n := len(m.skipped); n > 0 {
			msg += fmt.Sprintf(" Skipped %d.", n)
		}

		return defaultStyles.done.Render(msg + "\n")

	case stateWorking:
		var out strings.Builder

		for _, name := range m.inProgress() {
			spin := m.spinner.View() + " "
			cellsAvail := max(0, m.width-lipgloss.Width(spin))

			info := lipgloss.NewStyle().MaxWidth(cellsAvail).Render(m.verb + " " + defaultStyles.itemName.Render(name))

			cellsRemaining := max(0, m.width-lipgloss.Width(spin+info))
			out.WriteString(spin + info + strings.Repeat(" ", cellsRemaining) + "\n")
		}

		w := lipgloss.Width(strconv.Itoa(m.total))
		count := fmt.Sprintf(" %*d/%*d", w, len(m.completed)+len(m.skipped), w, m.total)

		prog := defaultStyles.progress.Render(m.progress.View() + count)
		gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(prog)))
		out.WriteString(prog + gap + "\n")

		return out.String()

	case stateIdle:
	}

	return ""
}

func (m *ProgressModel) inProgress() []string {
	var out []string
	for _, name := range m.started {
		if !slices.Contains(m.completed, name) {
			out = append(out, name)
		}
	}

	return out
}

// Err returns the error the command finished with.
func (m *ProgressModel) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.err
}

// Completed returns the finished items in order, failed ones included.
func (m *ProgressModel) Completed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.completed)
}

// Failed reports whether the named item finished with an error.
func (m *ProgressModel) Failed(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.failed[name]
}

// Skipped returns the items that were passed over.
func (m *ProgressModel) Skipped() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.skipped)
}
