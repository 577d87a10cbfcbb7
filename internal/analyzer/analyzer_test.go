package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/777genius/standupbot/internal/config"
)

// === Test Helpers ===

func testConfig() *config.Config {
	return &config.Config{
		Triggers: []config.TriggerConfig{
			{
				Name:            "standup",
				Keywords:        []string{"standup bot", "status update"},
				Prompt:          "Give a one-sentence status summary.",
				CooldownSeconds: 60,
			},
			{
				Name:            "recap",
				Keywords:        []string{"recap please"},
				Prompt:          "Recap the discussion.",
				CooldownSeconds: 60,
			},
		},
		Claude: config.ClaudeConfig{
			Binary:         "echo",
			Model:          "sonnet",
			TimeoutSeconds: 10,
		},
		HistorySize: 20,
	}
}

// fakeClaudeScript writes a shell script that mimics a failing claude binary
func fakeClaudeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "claude")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake claude: %v", err)
	}
	return path
}

// === Keyword Matching ===

func TestCheckKeywords(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTrigger string
		wantKeyword string
		wantMatch   bool
		description string
	}{
		{
			name:        "exact_keyword",
			text:        "hey standup bot, how are we doing",
			wantTrigger: "standup",
			wantKeyword: "standup bot",
			wantMatch:   true,
			description: "Keyword inside a sentence",
		},
		{
			name:        "case_insensitive",
			text:        "HEY STANDUP BOT",
			wantTrigger: "standup",
			wantKeyword: "standup bot",
			wantMatch:   true,
			description: "Speech recognition casing varies",
		},
		{
			name:        "second_keyword_of_trigger",
			text:        "time for a status update everyone",
			wantTrigger: "standup",
			wantKeyword: "status update",
			wantMatch:   true,
			description: "Any keyword of a trigger fires it",
		},
		{
			name:        "second_trigger",
			text:        "could you give us a recap please",
			wantTrigger: "recap",
			wantKeyword: "recap please",
			wantMatch:   true,
			description: "Later triggers are reachable",
		},
		{
			name:        "no_match",
			text:        "let's talk about the roadmap",
			wantMatch:   false,
			description: "Ordinary conversation stays silent",
		},
		{
			name:        "partial_words_do_not_assemble",
			text:        "standup is at ten, the bot is down",
			wantMatch:   false,
			description: "Substring match needs the exact phrase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(testConfig())

			trigger, keyword, ok := a.CheckKeywords(tt.text)
			if ok != tt.wantMatch {
				t.Fatalf("match = %v, want %v (reason: %s)", ok, tt.wantMatch, tt.description)
			}
			if !tt.wantMatch {
				return
			}
			if trigger.Name != tt.wantTrigger {
				t.Errorf("trigger = %s, want %s", trigger.Name, tt.wantTrigger)
			}
			if keyword != tt.wantKeyword {
				t.Errorf("keyword = %q, want %q", keyword, tt.wantKeyword)
			}
		})
	}
}

func TestCheckKeywordsCooldown(t *testing.T) {
	a := New(testConfig())

	if _, _, ok := a.CheckKeywords("standup bot"); !ok {
		t.Fatal("first match should fire")
	}

	// Immediately again: cooling down
	if _, _, ok := a.CheckKeywords("standup bot"); ok {
		t.Error("trigger fired again inside its cooldown")
	}

	// Pretend the last firing was over a minute ago
	a.mu.Lock()
	a.lastFired["standup"] = time.Now().Add(-61 * time.Second)
	a.mu.Unlock()

	if _, _, ok := a.CheckKeywords("standup bot"); !ok {
		t.Error("trigger should fire after the cooldown expires")
	}
}

func TestCheckKeywordsCooldownIsPerTrigger(t *testing.T) {
	a := New(testConfig())

	if _, _, ok := a.CheckKeywords("standup bot"); !ok {
		t.Fatal("standup should fire")
	}

	// A different trigger is not affected by standup's cooldown
	trigger, _, ok := a.CheckKeywords("recap please")
	if !ok {
		t.Fatal("recap should fire while standup cools down")
	}
	if trigger.Name != "recap" {
		t.Errorf("trigger = %s, want recap", trigger.Name)
	}
}

// === History ===

func TestAddToHistoryTrimsToSize(t *testing.T) {
	cfg := testConfig()
	cfg.HistorySize = 5
	a := New(cfg)

	for i := 0; i < 8; i++ {
		a.AddToHistory("utterance " + string(rune('0'+i)))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) != 5 {
		t.Fatalf("history length = %d, want 5", len(a.history))
	}
	if a.history[0] != "utterance 3" {
		t.Errorf("oldest kept = %q, want %q", a.history[0], "utterance 3")
	}
	if a.history[4] != "utterance 7" {
		t.Errorf("newest = %q, want %q", a.history[4], "utterance 7")
	}
}

func TestBuildPromptWindowsHistory(t *testing.T) {
	a := New(testConfig())
	for i := 0; i < 12; i++ {
		a.AddToHistory("line " + string(rune('a'+i)))
	}

	prompt := a.buildPrompt(a.triggers[0], "the latest thing")

	// Only the last 10 utterances make it into the context
	if strings.Contains(prompt, "line a") || strings.Contains(prompt, "line b") {
		t.Error("prompt contains history beyond the context window")
	}
	if !strings.Contains(prompt, "line c") || !strings.Contains(prompt, "line l") {
		t.Error("prompt is missing recent history")
	}
	if !strings.Contains(prompt, "Latest utterance: the latest thing") {
		t.Error("prompt is missing the latest utterance")
	}
	if !strings.HasSuffix(prompt, "Give a one-sentence status summary.") {
		t.Error("prompt should end with the trigger instruction")
	}
}

// === Claude CLI ===

func TestBuildClaudeArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ClaudeConfig
		want []string
	}{
		{
			name: "minimal",
			cfg:  config.ClaudeConfig{Model: "sonnet"},
			want: []string{"-p", "the prompt", "--model", "sonnet"},
		},
		{
			name: "with_system_prompt",
			cfg:  config.ClaudeConfig{Model: "sonnet", AppendSystemPrompt: "You are terse."},
			want: []string{"-p", "the prompt", "--model", "sonnet", "--append-system-prompt", "You are terse."},
		},
		{
			name: "with_allowed_tools",
			cfg:  config.ClaudeConfig{Model: "opus", AllowedTools: []string{"WebSearch", "Read"}},
			want: []string{"-p", "the prompt", "--model", "opus", "--allowedTools", "WebSearch,Read"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildClaudeArgs(tt.cfg, "the prompt")
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("arg %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerateResponse(t *testing.T) {
	// echo prints its arguments, so the response carries the prompt back
	a := New(testConfig())
	a.AddToHistory("we shipped the login fix")

	resp, err := a.GenerateResponse(context.Background(), a.triggers[0], "standup bot, status update")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resp, "we shipped the login fix") {
		t.Error("prompt history did not reach the claude binary")
	}
	if !strings.Contains(resp, "--model sonnet") {
		t.Error("model flag did not reach the claude binary")
	}
}

func TestGenerateResponseExitError(t *testing.T) {
	cfg := testConfig()
	cfg.Claude.Binary = fakeClaudeScript(t, `echo "usage: claude [options]" >&2; exit 2`)
	a := New(cfg)

	resp, err := a.GenerateResponse(context.Background(), cfg.Triggers[0], "standup bot")
	if err != nil {
		t.Fatalf("exit errors should become response text, got error: %v", err)
	}
	if !strings.Contains(resp, "[Claude error:") || !strings.Contains(resp, "usage: claude") {
		t.Errorf("response = %q, want folded stderr", resp)
	}
}

func TestGenerateResponseMissingBinary(t *testing.T) {
	cfg := testConfig()
	cfg.Claude.Binary = "/nonexistent/claude-cli"
	a := New(cfg)

	_, err := a.GenerateResponse(context.Background(), cfg.Triggers[0], "standup bot")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

// === Forced triggers ===

func TestForceTrigger(t *testing.T) {
	a := New(testConfig())
	a.AddToHistory("the very last thing said")

	// Exhaust the cooldown so we can prove ForceTrigger ignores it
	if _, _, ok := a.CheckKeywords("standup bot"); !ok {
		t.Fatal("setup: trigger should fire")
	}

	match, err := a.ForceTrigger(context.Background(), a.triggers[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Keyword != "(manual)" {
		t.Errorf("keyword = %q, want (manual)", match.Keyword)
	}
	if !strings.Contains(match.Response, "the very last thing said") {
		t.Error("forced trigger should use the latest utterance")
	}
}

func TestForceTriggerEmptyHistory(t *testing.T) {
	a := New(testConfig())

	match, err := a.ForceTrigger(context.Background(), a.triggers[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Trigger.Name != "recap" {
		t.Errorf("trigger = %s, want recap", match.Trigger.Name)
	}
}
