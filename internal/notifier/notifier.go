// ABOUTME: Desktop notifications for bot responses via terminal-notifier or beeep.
// ABOUTME: Condenses claude's markdown answers into short notification bodies.
package notifier

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// notificationBodyLimit keeps bodies short enough for the macOS banner.
const notificationBodyLimit = 150

// Notifier sends desktop notifications
type Notifier struct {
	cfg *config.Config
}

// New creates a new notifier
func New(cfg *config.Config) *Notifier {
	return &Notifier{
		cfg: cfg,
	}
}

// SendDesktop shows the bot's answer as a desktop notification.
// Methods: "terminal-notifier", "beeep", "auto" (default)
func (n *Notifier) SendDesktop(trigger, response string) error {
	if !n.cfg.IsDesktopEnabled() {
		logging.Debug("Desktop notifications disabled, skipping")
		return nil
	}

	title := fmt.Sprintf("Standup Bot · %s", trigger)
	body := Condense(response, notificationBodyLimit)

	switch n.cfg.Notifications.Desktop.Method {
	case "terminal-notifier":
		if isTerminalNotifierAvailable() {
			if err := n.sendWithTerminalNotifier(title, body); err != nil {
				logging.Warn("terminal-notifier failed, falling back to beeep: %v", err)
				return n.sendWithBeeep(title, body)
			}
			return nil
		}
		logging.Debug("terminal-notifier not available, falling back to beeep")
		return n.sendWithBeeep(title, body)

	case "beeep":
		return n.sendWithBeeep(title, body)

	default:
		// "auto" or "": terminal-notifier on macOS when installed, beeep otherwise
		if isTerminalNotifierAvailable() {
			if err := n.sendWithTerminalNotifier(title, body); err == nil {
				logging.Debug("Desktop notification sent via terminal-notifier: title=%s", title)
				return nil
			} else {
				logging.Warn("terminal-notifier failed, falling back to beeep: %v", err)
			}
		}
		return n.sendWithBeeep(title, body)
	}
}

func isTerminalNotifierAvailable() bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	_, err := exec.LookPath("terminal-notifier")
	return err == nil
}

func (n *Notifier) sendWithTerminalNotifier(title, message string) error {
	path, err := exec.LookPath("terminal-notifier")
	if err != nil {
		return fmt.Errorf("terminal-notifier not found: %w", err)
	}

	cmd := exec.Command(path, buildTerminalNotifierArgs(title, message)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("terminal-notifier error: %w, output: %s", err, string(output))
	}
	return nil
}

// buildTerminalNotifierArgs constructs command-line arguments for terminal-notifier.
// Exported for testing purposes.
func buildTerminalNotifierArgs(title, message string) []string {
	return []string{
		"-title", title,
		"-message", message,
		// Unique group so successive responses stack instead of replacing each other
		"-group", fmt.Sprintf("standupbot-%d", time.Now().UnixNano()),
	}
}

// sendWithBeeep sends notification via beeep (cross-platform)
func (n *Notifier) sendWithBeeep(title, message string) error {
	// Platform-specific AppName handling:
	// - Windows: fixed AppName, each unique name leaves a permanent registry entry
	// - macOS/Linux: unique AppName so notifications don't replace each other
	originalAppName := beeep.AppName
	if runtime.GOOS == "windows" {
		beeep.AppName = "Standup Bot"
	} else {
		beeep.AppName = fmt.Sprintf("standupbot-%d", time.Now().UnixNano())
	}
	defer func() {
		beeep.AppName = originalAppName
	}()

	if err := beeep.Notify(title, message, ""); err != nil {
		logging.Error("Failed to send desktop notification: %v", err)
		return err
	}

	logging.Debug("Desktop notification sent via beeep: title=%s", title)
	return nil
}

// Close is a no-op (kept for interface compatibility)
func (n *Notifier) Close() error {
	return nil
}
