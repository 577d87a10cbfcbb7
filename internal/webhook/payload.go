// ABOUTME: Payload builders for the supported webhook presets.
// ABOUTME: Slack uses attachments, Discord uses embeds, custom endpoints get plain JSON or text.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/777genius/standupbot/internal/config"
)

// slackColors are hex strings for attachment sidebars.
var slackColors = map[Event]string{
	EventResponse:       "#28a745",
	EventError:          "#dc3545",
	EventSessionStarted: "#17a2b8",
	EventSessionStopped: "#6c757d",
}

// discordColors are the same palette as decimal integers.
var discordColors = map[Event]int{
	EventResponse:       0x28a745,
	EventError:          0xdc3545,
	EventSessionStarted: 0x17a2b8,
	EventSessionStopped: 0x6c757d,
}

type customPayload struct {
	Event     string `json:"event"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// buildPayload renders the event for the configured preset and returns the
// request body with its content type.
func buildPayload(wh config.WebhookConfig, event Event, message, sessionID string) ([]byte, string, error) {
	switch wh.Preset {
	case "slack":
		return marshalJSON(slackPayload(event, message, sessionID))
	case "discord":
		return marshalJSON(discordPayload(event, message, sessionID))
	}

	if wh.Format == "text" {
		body := fmt.Sprintf("[%s] %s", event.Title(), message)
		return []byte(body), "text/plain; charset=utf-8", nil
	}

	return marshalJSON(customPayload{
		Event:     string(event),
		Title:     event.Title(),
		Message:   message,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func slackPayload(event Event, message, sessionID string) map[string]any {
	color, ok := slackColors[event]
	if !ok {
		color = "#6c757d"
	}
	return map[string]any{
		"attachments": []map[string]any{{
			"color":  color,
			"title":  event.Title(),
			"text":   message,
			"footer": "standupbot · " + sessionID,
			"ts":     time.Now().Unix(),
		}},
	}
}

func discordPayload(event Event, message, sessionID string) map[string]any {
	color, ok := discordColors[event]
	if !ok {
		color = 0x6c757d
	}
	return map[string]any{
		"embeds": []map[string]any{{
			"title":       event.Title(),
			"description": message,
			"color":       color,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"footer":      map[string]any{"text": "standupbot · " + sessionID},
		}},
	}
}

func marshalJSON(v any) ([]byte, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encoding webhook payload: %w", err)
	}
	return data, "application/json", nil
}
