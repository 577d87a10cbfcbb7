package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/777genius/standupbot/internal/bot"
	"github.com/777genius/standupbot/internal/config"
)

// fakeController records which controls were touched
type fakeController struct {
	events     chan bot.Event
	paused     bool
	triggersOn bool
	manual     []int
}

func newFakeController() *fakeController {
	return &fakeController{events: make(chan bot.Event, 8)}
}

func (f *fakeController) Events() <-chan bot.Event { return f.events }
func (f *fakeController) TogglePause() bool        { f.paused = !f.paused; return f.paused }
func (f *fakeController) Paused() bool             { return f.paused }
func (f *fakeController) ToggleTriggers() bool     { f.triggersOn = !f.triggersOn; return f.triggersOn }
func (f *fakeController) TriggersEnabled() bool    { return f.triggersOn }
func (f *fakeController) ManualTrigger(index int)  { f.manual = append(f.manual, index) }

func testTriggers() []config.TriggerConfig {
	return []config.TriggerConfig{
		{Name: "standup", Keywords: []string{"standup bot"}},
		{Name: "summary", Keywords: []string{"summarize"}},
	}
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func pressKey(m Model, key string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model)
}

func TestPauseKeyTogglesBot(t *testing.T) {
	ctrl := newFakeController()
	m := sized(New(ctrl, testTriggers()))

	m = pressKey(m, "p")
	if !ctrl.paused {
		t.Error("expected bot paused after pressing p")
	}
	if !strings.Contains(m.View(), "paused") {
		t.Errorf("expected paused status in view, got:\n%s", m.View())
	}

	m = pressKey(m, "p")
	if ctrl.paused {
		t.Error("expected bot resumed after pressing p again")
	}
	if !strings.Contains(m.View(), "listening") {
		t.Errorf("expected listening status in view, got:\n%s", m.View())
	}
}

func TestTriggerKeyTogglesAutoTriggers(t *testing.T) {
	ctrl := newFakeController()
	m := sized(New(ctrl, testTriggers()))

	m = pressKey(m, "t")
	if !ctrl.triggersOn {
		t.Error("expected auto-triggers on after pressing t")
	}
	if !strings.Contains(m.View(), "auto-triggers on") {
		t.Errorf("expected auto-trigger status in view, got:\n%s", m.View())
	}
}

func TestDigitKeysFireManualTriggers(t *testing.T) {
	ctrl := newFakeController()
	m := sized(New(ctrl, testTriggers()))

	m = pressKey(m, "1")
	m = pressKey(m, "2")
	// Out of range: only two triggers configured
	m = pressKey(m, "9")

	if len(ctrl.manual) != 2 || ctrl.manual[0] != 0 || ctrl.manual[1] != 1 {
		t.Errorf("expected manual triggers [0 1], got %v", ctrl.manual)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		ctrl := newFakeController()
		m := sized(New(ctrl, testTriggers()))

		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("expected quit command for %q", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("expected tea.QuitMsg for %q", key)
		}
	}
}

func TestEventsAppearInTranscript(t *testing.T) {
	ctrl := newFakeController()
	m := sized(New(ctrl, testTriggers()))

	next, cmd := m.Update(eventMsg(bot.Event{Kind: bot.EventTranscript, Text: "we shipped the parser"}))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a follow-up wait command after an event")
	}
	if !strings.Contains(m.View(), "we shipped the parser") {
		t.Errorf("expected transcript text in view, got:\n%s", m.View())
	}

	next, _ = m.Update(eventMsg(bot.Event{Kind: bot.EventResponse, Trigger: "standup", Keyword: "standup bot", Text: "All on track."}))
	m = next.(Model)
	if !strings.Contains(m.View(), "All on track.") {
		t.Errorf("expected response text in view, got:\n%s", m.View())
	}
}

func TestClearKeyEmptiesTranscript(t *testing.T) {
	ctrl := newFakeController()
	m := sized(New(ctrl, testTriggers()))

	next, _ := m.Update(eventMsg(bot.Event{Kind: bot.EventTranscript, Text: "old line"}))
	m = next.(Model)
	m = pressKey(m, "c")

	if strings.Contains(m.View(), "old line") {
		t.Errorf("expected transcript cleared, got:\n%s", m.View())
	}
}
