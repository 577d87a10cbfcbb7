// ABOUTME: Terminal UI for a running bot session, built on bubbletea.
// ABOUTME: Renders the live transcript and responses, and maps keys to bot controls.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/777genius/standupbot/internal/bot"
	"github.com/777genius/standupbot/internal/config"
)

// Controller is what the UI needs from the bot. *bot.Bot satisfies it; tests
// substitute a fake.
type Controller interface {
	Events() <-chan bot.Event
	TogglePause() bool
	Paused() bool
	ToggleTriggers() bool
	TriggersEnabled() bool
	ManualTrigger(index int)
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	listeningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	triggerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	responseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("150"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// eventMsg wraps a bot event for the bubbletea loop
type eventMsg bot.Event

// Model is the bubbletea model for a bot session
type Model struct {
	ctrl     Controller
	triggers []config.TriggerConfig

	viewport viewport.Model
	lines    []string
	ready    bool
	width    int
}

// New builds the session UI over a running bot
func New(ctrl Controller, triggers []config.TriggerConfig) Model {
	return Model{ctrl: ctrl, triggers: triggers}
}

// waitForEvent blocks on the bot's event stream and hands the next event to
// Update. Re-issued after every event so the stream keeps draining.
func waitForEvent(events <-chan bot.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return eventMsg(ev)
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.ctrl.Events())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// Title, status bar, and help line frame the viewport.
		height := msg.Height - 4
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case eventMsg:
		m.appendEvent(bot.Event(msg))
		return m, waitForEvent(m.ctrl.Events())
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p":
		if m.ctrl.TogglePause() {
			m.addLine(noticeStyle.Render("⏸ Paused, utterances are dropped"))
		} else {
			m.addLine(listeningStyle.Render("▶ Resumed"))
		}
		return m, nil

	case "t":
		if m.ctrl.ToggleTriggers() {
			m.addLine(listeningStyle.Render("Auto-triggers on: " + triggerNames(m.triggers)))
		} else {
			m.addLine(noticeStyle.Render("Auto-triggers off (manual only)"))
		}
		return m, nil

	case "c":
		m.lines = nil
		m.refresh()
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		index := int(key[0] - '1')
		if index < len(m.triggers) {
			m.ctrl.ManualTrigger(index)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) appendEvent(ev bot.Event) {
	switch ev.Kind {
	case bot.EventTranscript:
		m.addLine(transcriptStyle.Render("  " + ev.Text))
	case bot.EventThinking:
		m.addLine(triggerStyle.Render(fmt.Sprintf("⚡ %s (%s) thinking...", ev.Trigger, ev.Keyword)))
	case bot.EventResponse:
		m.addLine(triggerStyle.Render(fmt.Sprintf("⚡ %s:", ev.Trigger)) + "\n" +
			responseStyle.Render(indent(ev.Text)))
	case bot.EventNotice:
		m.addLine(noticeStyle.Render("! " + ev.Text))
	}
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var status string
	if m.ctrl.Paused() {
		status = pausedStyle.Render("⏸ paused")
	} else {
		status = listeningStyle.Render("● listening")
	}
	auto := "off"
	if m.ctrl.TriggersEnabled() {
		auto = "on"
	}
	bar := statusBarStyle.Render(fmt.Sprintf(" · auto-triggers %s · triggers: %s", auto, triggerNames(m.triggers)))

	var b strings.Builder
	b.WriteString(titleStyle.Render("standupbot"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(status + bar)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("p pause · t auto-triggers · 1-9 trigger · c clear · q quit"))
	return b.String()
}

func triggerNames(triggers []config.TriggerConfig) string {
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = fmt.Sprintf("%d:%s", i+1, t.Name)
	}
	return strings.Join(names, " ")
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
