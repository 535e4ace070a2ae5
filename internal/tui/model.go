package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"studio/internal/automation"
)

// Source provides the automation state the monitor renders. Implemented
// by the commands package's API client.
type Source interface {
	ListAutomations() ([]automation.Progress, error)
	ClearAutomations() ([]automation.Progress, error)
	RemoveAutomation(id string) error
}

const pollInterval = time.Second

// automationsLoadedMsg is sent after polling the server.
type automationsLoadedMsg struct {
	automations []automation.Progress
	err         error
}

type tickMsg time.Time

// Model is the bubbletea model for the automation monitor.
type Model struct {
	source  Source
	version string

	automations []automation.Progress
	err         error
	loading     bool
	cursor      int
	spin        spinner.Model

	width  int
	height int
}

// Run starts the full-screen monitor.
func Run(source Source, version string) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = headerStyle

	m := Model{
		source:  source,
		version: version,
		loading: true,
		spin:    sp,
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := m.source.ListAutomations()
		return automationsLoadedMsg{automations: list, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spin.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tickCmd())

	case automationsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.automations = msg.automations
			if m.cursor >= len(m.automations) {
				m.cursor = len(m.automations) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Refresh):
			m.loading = true
			return m, m.loadCmd()

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.automations)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, keys.Clear):
			src := m.source
			return m, func() tea.Msg {
				list, err := src.ClearAutomations()
				return automationsLoadedMsg{automations: list, err: err}
			}

		case key.Matches(msg, keys.Delete):
			if m.cursor >= len(m.automations) {
				return m, nil
			}
			id := m.automations[m.cursor].ID
			src := m.source
			load := m.loadCmd()
			return m, func() tea.Msg {
				if err := src.RemoveAutomation(id); err != nil {
					return automationsLoadedMsg{err: err}
				}
				return load()
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf(" studio monitor %s ", m.version)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" connecting..."))

	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %v", m.err)))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  press r to retry"))

	case len(m.automations) == 0:
		b.WriteString(dimStyle.Render("  No automations. Submit one with 'studio run' or POST /api/automations."))

	default:
		m.renderGroups(&b)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  q quit · r refresh · j/k move · c clear finished · d delete"))
	return appStyle.Render(b.String())
}

func (m Model) renderGroups(b *strings.Builder) {
	var running, completed, failed []int
	for i, p := range m.automations {
		switch p.Status {
		case automation.StatusRunning:
			running = append(running, i)
		case automation.StatusCompleted:
			completed = append(completed, i)
		default:
			failed = append(failed, i)
		}
	}

	renderGroup := func(title string, style func(...string) string, idxs []int) {
		if len(idxs) == 0 {
			return
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %s (%d)", title, len(idxs))))
		b.WriteString("\n")
		for _, i := range idxs {
			b.WriteString(m.renderLine(i, style))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	renderGroup("▶ Running", okStyle.Render, running)
	renderGroup("✓ Completed", dimStyle.Render, completed)
	renderGroup("✗ Failed", errorStyle.Render, failed)
}

func (m Model) renderLine(i int, style func(...string) string) string {
	p := m.automations[i]

	prefix := "  "
	if i == m.cursor {
		prefix = "> "
	}

	line := fmt.Sprintf("%s%-24s %-5s run %d/%d",
		prefix, truncate(p.Config.Name, 24), p.Type,
		p.CurrentRunIndex+1, len(p.Config.Runs))
	if p.Type == automation.TypeChat && p.Status == automation.StatusRunning {
		line += fmt.Sprintf(" prompt %d", p.CurrentPromptIndex+1)
	}
	if p.Status == automation.StatusRunning {
		line += "  " + m.spin.View()
	}
	if p.Error != "" {
		line += "  " + truncate(p.Error, 40)
	}

	if i == m.cursor {
		return "  " + selectedStyle.Render(line)
	}
	return "  " + style(line)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
