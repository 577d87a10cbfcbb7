package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// BuildClaudeArgs constructs the claude CLI argument list for a prompt.
// Exported for testing.
func BuildClaudeArgs(cfg config.ClaudeConfig, prompt string) []string {
	args := []string{"-p", prompt, "--model", cfg.Model}
	if cfg.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", cfg.AppendSystemPrompt)
	}
	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(cfg.AllowedTools, ","))
	}
	return args
}

// GenerateResponse runs the claude CLI for a trigger. A non-zero exit is
// folded into the response text so the failure is spoken and shown rather
// than silently dropped; only failing to launch the binary is an error.
func (a *Analyzer) GenerateResponse(ctx context.Context, trigger config.TriggerConfig, transcript string) (string, error) {
	prompt := a.buildPrompt(trigger, transcript)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.claude.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, a.claude.Binary, BuildClaudeArgs(a.claude, prompt)...)
	out, err := cmd.Output()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		logging.Warn("claude exited with %d: %s", exitErr.ExitCode(), stderr)
		return fmt.Sprintf("[Claude error: %s]", stderr), nil
	}
	if err != nil {
		return "", fmt.Errorf("running %s: %w", a.claude.Binary, err)
	}

	logging.Debug("claude answered for trigger %s in %v", trigger.Name, time.Since(start).Round(time.Millisecond))
	return strings.TrimSpace(string(out)), nil
}
