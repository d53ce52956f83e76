package cli

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/credcheck/internal/export"
	"github.com/raphaelgruber/credcheck/internal/models"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// eventMsg carries one queue event into the UI.
type eventMsg export.Event

// row is the display state of one queued export.
type row struct {
	id      string
	label   string
	status  models.QueueStatus
	percent float64
	stage   string
	err     *models.ExportError
}

// progressModel is the bubbletea model for export progress.
type progressModel struct {
	rows      []row
	index     map[string]int
	remaining int
	progress  progress.Model
	theme     Theme
	cancel    func()
	done      bool
	quitting  bool
}

// newProgressModel creates a model for the given items. cancel is called when
// the user interrupts.
func newProgressModel(items []export.QueueItem, cancel func()) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	m := progressModel{
		rows:      make([]row, len(items)),
		index:     make(map[string]int, len(items)),
		remaining: len(items),
		progress:  prog,
		theme:     defaultTheme,
		cancel:    cancel,
	}
	for i, it := range items {
		m.rows[i] = row{id: it.ID, label: itemLabel(it), status: it.Status}
		m.index[it.ID] = i
	}
	return m
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case eventMsg:
		i, ok := m.index[msg.ItemID]
		if !ok {
			return m, nil
		}
		r := &m.rows[i]
		if r.status.Terminal() {
			return m, nil
		}
		switch msg.Type {
		case export.EventStarted:
			r.status = models.StatusProcessing
		case export.EventProgress:
			r.percent = msg.Progress.Percentage / 100
			r.stage = msg.Progress.Stage
		case export.EventComplete:
			r.status, r.percent = models.StatusCompleted, 1
		case export.EventError:
			r.status, r.err = models.StatusFailed, msg.Error
		case export.EventCancelled:
			r.status, r.err = models.StatusCancelled, msg.Error
		}
		if r.status.Terminal() {
			m.remaining--
			if m.remaining == 0 {
				m.done = true
				return m, tea.Quit
			}
		}

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	var b strings.Builder
	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteByte('\n')
	}
	switch {
	case m.quitting:
		b.WriteString(m.theme.hintStyle().Render("Cancelling remaining exports..."))
		b.WriteByte('\n')
	case !m.done:
		b.WriteString(m.theme.hintStyle().Render("Press q or Ctrl+C to cancel"))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m progressModel) renderRow(r row) string {
	label := fmt.Sprintf("%-24s", r.label)
	switch r.status {
	case models.StatusCompleted:
		return m.theme.completedStyle().Render("✓ ") + label
	case models.StatusFailed, models.StatusCancelled:
		msg := string(r.status)
		if r.err != nil {
			msg = r.err.Error()
		}
		return m.theme.errorStyle().Render("✗ ") + label + " " + m.theme.errorStyle().Render(msg)
	}
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", r.status))
	return fmt.Sprintf("%s %s %s %s", status, label, m.progress.ViewAs(r.percent), r.stage)
}

// runProgressUI shows live progress for items until each has finished or the
// user interrupts, in which case cancel is called. The items must still be
// pending: start is called once every item is subscribed.
func runProgressUI(o *export.Orchestrator, items []export.QueueItem, start, cancel func()) error {
	p := tea.NewProgram(newProgressModel(items, cancel))

	for _, it := range items {
		unsubscribe, err := o.Subscribe(it.ID, func(ev export.Event) { p.Send(eventMsg(ev)) })
		if err != nil {
			return err
		}
		defer unsubscribe()
	}
	start()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}

func itemLabel(it export.QueueItem) string {
	if mode, err := it.Options.PDFMode(); err == nil && it.Options.Format == models.FormatPDF {
		return fmt.Sprintf("%s (%s)", it.Options.Format, mode)
	}
	return string(it.Options.Format)
}
