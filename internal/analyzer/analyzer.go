// Package analyzer watches transcribed speech for trigger keywords and
// generates responses through the claude CLI.
package analyzer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// TODO: Future improvement - word-boundary keyword matching
// Multi-word keywords like "status update" are safe, but a single-word
// keyword such as "bot" also matches inside "robot". Needs tokenization
// rather than substring search, and keywords spanning punctuation
// ("stand-up") make that non-trivial.

// ManualKeyword marks a trigger fired by hand rather than by speech
const ManualKeyword = "(manual)"

// TriggerMatch is the outcome of a fired trigger
type TriggerMatch struct {
	Trigger  config.TriggerConfig
	Keyword  string // matched keyword, or ManualKeyword for forced triggers
	Response string
}

// Analyzer holds trigger state and the rolling transcript history
type Analyzer struct {
	triggers    []config.TriggerConfig
	claude      config.ClaudeConfig
	historySize int

	mu        sync.Mutex
	history   []string
	lastFired map[string]time.Time
}

// promptContextSize is how many recent utterances go into the claude prompt
const promptContextSize = 10

// New creates an analyzer from config
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		triggers:    cfg.Triggers,
		claude:      cfg.Claude,
		historySize: cfg.HistorySize,
		lastFired:   make(map[string]time.Time),
	}
}

// AddToHistory appends an utterance to the rolling transcript history
func (a *Analyzer) AddToHistory(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, text)
	if len(a.history) > a.historySize {
		a.history = a.history[len(a.history)-a.historySize:]
	}
}

// CheckKeywords matches text against all triggers, respecting cooldowns.
// The first trigger whose keyword appears (case-insensitive substring) wins
// and its cooldown clock restarts.
func (a *Analyzer) CheckKeywords(text string) (config.TriggerConfig, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	textLower := strings.ToLower(text)

	for _, trigger := range a.triggers {
		cooldown := time.Duration(trigger.CooldownSeconds) * time.Second
		if last, ok := a.lastFired[trigger.Name]; ok && time.Since(last) < cooldown {
			continue
		}

		for _, keyword := range trigger.Keywords {
			if strings.Contains(textLower, strings.ToLower(keyword)) {
				a.lastFired[trigger.Name] = time.Now()
				logging.Debug("Trigger %s fired on keyword %q", trigger.Name, keyword)
				return trigger, keyword, true
			}
		}
	}

	return config.TriggerConfig{}, "", false
}

// ForceTrigger fires a trigger by hand, bypassing keywords and cooldowns
func (a *Analyzer) ForceTrigger(ctx context.Context, trigger config.TriggerConfig) (*TriggerMatch, error) {
	a.mu.Lock()
	latest := ""
	if len(a.history) > 0 {
		latest = a.history[len(a.history)-1]
	}
	a.mu.Unlock()

	response, err := a.GenerateResponse(ctx, trigger, latest)
	if err != nil {
		return nil, err
	}
	return &TriggerMatch{Trigger: trigger, Keyword: ManualKeyword, Response: response}, nil
}

// buildPrompt assembles the claude prompt from recent history, the latest
// utterance and the trigger's instruction
func (a *Analyzer) buildPrompt(trigger config.TriggerConfig, transcript string) string {
	a.mu.Lock()
	recent := a.history
	if len(recent) > promptContextSize {
		recent = recent[len(recent)-promptContextSize:]
	}
	context := strings.Join(recent, "\n")
	a.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("Recent meeting transcript:\n")
	sb.WriteString(context)
	sb.WriteString("\n\nLatest utterance: ")
	sb.WriteString(transcript)
	sb.WriteString("\n\n")
	sb.WriteString(trigger.Prompt)
	return sb.String()
}
