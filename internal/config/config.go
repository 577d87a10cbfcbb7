package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the bot configuration
type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	Whisper       WhisperConfig       `yaml:"whisper"`
	Claude        ClaudeConfig        `yaml:"claude"`
	TTS           TTSConfig           `yaml:"tts"`
	Triggers      []TriggerConfig     `yaml:"triggers"`
	HistorySize   int                 `yaml:"historySize"` // Utterances kept for trigger prompts, default: 20
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// AudioConfig represents capture and playback settings
type AudioConfig struct {
	CaptureDevice   string   `yaml:"captureDevice"`   // Input device name (default: "BlackHole 2ch")
	SampleRate      int      `yaml:"sampleRate"`      // Capture sample rate in Hz, default 16000 (what whisper expects)
	VADThreshold    float64  `yaml:"vadThreshold"`    // RMS level that counts as speech, default 0.01
	SilenceSeconds  float64  `yaml:"silenceSeconds"`  // Trailing silence that ends an utterance, default 1.5
	MinSpeechSecs   float64  `yaml:"minSpeechSecs"`   // Utterances shorter than this are dropped, default 0.3
	ChimeSound      string   `yaml:"chimeSound"`      // Sound file played when a trigger fires (empty = no chime)
	ChimeVolume     float64  `yaml:"chimeVolume"`     // Volume level 0.0-1.0, default 1.0 (full volume)
	PlaybackDevices []string `yaml:"playbackDevices"` // Devices TTS plays on (empty = system default only)
}

// WhisperConfig represents transcription server settings
type WhisperConfig struct {
	URL            string `yaml:"url"`            // whisper.cpp server endpoint
	TimeoutSeconds int    `yaml:"timeoutSeconds"` // Per-request timeout, default 30
}

// ClaudeConfig represents settings for the claude CLI
type ClaudeConfig struct {
	Binary             string   `yaml:"binary"`             // Executable name or path, default "claude"
	Model              string   `yaml:"model"`              // Model passed via --model, default "sonnet"
	AppendSystemPrompt string   `yaml:"appendSystemPrompt"` // Extra system prompt passed via --append-system-prompt
	AllowedTools       []string `yaml:"allowedTools"`       // Tool allowlist passed via --allowedTools
	TimeoutSeconds     int      `yaml:"timeoutSeconds"`     // Per-invocation timeout, default 120
}

// TTSConfig represents text-to-speech settings
type TTSConfig struct {
	Engine         string       `yaml:"engine"` // "say" or "kokoro" (default: "say")
	Say            SayConfig    `yaml:"say"`
	Kokoro         KokoroConfig `yaml:"kokoro"`
	SpeakResponses *bool        `yaml:"speakResponses"` // Speak trigger responses aloud, default: true
}

// SayConfig represents settings for the macOS say command
type SayConfig struct {
	Voice string `yaml:"voice"` // default "Samantha"
	Rate  int    `yaml:"rate"`  // Words per minute, default 175
}

// KokoroConfig represents settings for a kokoro TTS server
type KokoroConfig struct {
	URL   string `yaml:"url"`
	Voice string `yaml:"voice"`
}

// TriggerConfig represents one keyword trigger
type TriggerConfig struct {
	Name            string   `yaml:"name"`
	Keywords        []string `yaml:"keywords"`        // Any match (case-insensitive substring) fires the trigger
	Prompt          string   `yaml:"prompt"`          // Instruction appended after the recent transcript context
	CooldownSeconds int      `yaml:"cooldownSeconds"` // Minimum seconds between firings, default 60
}

// NotificationsConfig represents notification settings
type NotificationsConfig struct {
	Desktop DesktopConfig `yaml:"desktop"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// DesktopConfig represents desktop notification settings
type DesktopConfig struct {
	Enabled bool   `yaml:"enabled"`
	Method  string `yaml:"method"` // Notification method: "auto", "terminal-notifier", "beeep" (default: "auto")
}

// WebhookConfig represents webhook settings
type WebhookConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	Preset         string               `yaml:"preset"`
	URL            string               `yaml:"url"`
	Format         string               `yaml:"format"`
	Headers        map[string]string    `yaml:"headers"`
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
	RateLimit      RateLimitConfig      `yaml:"rateLimit"`
}

// RetryConfig represents retry settings
type RetryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	MaxAttempts    int    `yaml:"maxAttempts"`
	InitialBackoff string `yaml:"initialBackoff"` // e.g. "1s"
	MaxBackoff     string `yaml:"maxBackoff"`     // e.g. "10s"
}

// CircuitBreakerConfig represents circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold int    `yaml:"failureThreshold"` // failures before opening
	Timeout          string `yaml:"timeout"`          // time to wait in open state, e.g. "30s"
	SuccessThreshold int    `yaml:"successThreshold"` // successes needed in half-open
}

// RateLimitConfig represents rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// LoggingConfig represents log settings
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error" (default: "info")
	File  string `yaml:"file"`  // Log file path; empty = platform default, "-" = console only
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			CaptureDevice:  "BlackHole 2ch",
			SampleRate:     16000,
			VADThreshold:   0.01,
			SilenceSeconds: 1.5,
			MinSpeechSecs:  0.3,
			ChimeVolume:    1.0, // Full volume by default
			// TTS goes to the loopback so the meeting hears the bot
			PlaybackDevices: []string{"BlackHole 2ch"},
		},
		Whisper: WhisperConfig{
			URL:            "http://127.0.0.1:8080/inference",
			TimeoutSeconds: 30,
		},
		Claude: ClaudeConfig{
			Binary:         "claude",
			Model:          "sonnet",
			TimeoutSeconds: 120,
		},
		TTS: TTSConfig{
			Engine: "say",
			Say: SayConfig{
				Voice: "Samantha",
				Rate:  175,
			},
			Kokoro: KokoroConfig{
				URL:   "http://127.0.0.1:8880/v1/audio/speech",
				Voice: "af_sky",
			},
		},
		Triggers: []TriggerConfig{
			{
				Name:            "standup",
				Keywords:        []string{"standup bot", "status update"},
				Prompt:          "You are listening to a team standup. Based on this transcript, give a one-sentence status summary:\n\n{{transcript}}",
				CooldownSeconds: 60,
			},
		},
		HistorySize: 20,
		Notifications: NotificationsConfig{
			Desktop: DesktopConfig{
				Enabled: true,
			},
			Webhook: WebhookConfig{
				Enabled: false,
				Preset:  "custom",
				URL:     "",
				Format:  "json",
				Headers: make(map[string]string),
				Retry: RetryConfig{
					Enabled:        true,
					MaxAttempts:    3,
					InitialBackoff: "1s",
					MaxBackoff:     "10s",
				},
				CircuitBreaker: CircuitBreakerConfig{
					Enabled:          true,
					FailureThreshold: 5,
					Timeout:          "30s",
					SuccessThreshold: 2,
				},
				RateLimit: RateLimitConfig{
					Enabled:           true,
					RequestsPerMinute: 10,
				},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the standard config location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "standupbot", "config.yaml")
}

// Load loads configuration from a file
// If the file doesn't exist, returns default config
func Load(path string) (*Config, error) {
	// If path doesn't exist, use default config
	if !fileExists(path) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand ~ and environment variables in paths
	config.Audio.ChimeSound = expandPath(config.Audio.ChimeSound)
	config.Logging.File = expandPath(config.Logging.File)
	config.Notifications.Webhook.URL = os.ExpandEnv(config.Notifications.Webhook.URL)

	// Apply defaults for missing fields
	config.ApplyDefaults()

	return config, nil
}

// ApplyDefaults fills in missing fields with default values
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	// Audio defaults
	if c.Audio.CaptureDevice == "" {
		c.Audio.CaptureDevice = defaults.Audio.CaptureDevice
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Audio.VADThreshold == 0 {
		c.Audio.VADThreshold = defaults.Audio.VADThreshold
	}
	if c.Audio.SilenceSeconds == 0 {
		c.Audio.SilenceSeconds = defaults.Audio.SilenceSeconds
	}
	if c.Audio.MinSpeechSecs == 0 {
		c.Audio.MinSpeechSecs = defaults.Audio.MinSpeechSecs
	}
	if c.Audio.ChimeVolume == 0 {
		c.Audio.ChimeVolume = defaults.Audio.ChimeVolume
	}

	// Whisper defaults
	if c.Whisper.URL == "" {
		c.Whisper.URL = defaults.Whisper.URL
	}
	if c.Whisper.TimeoutSeconds == 0 {
		c.Whisper.TimeoutSeconds = defaults.Whisper.TimeoutSeconds
	}

	// Claude defaults
	if c.Claude.Binary == "" {
		c.Claude.Binary = defaults.Claude.Binary
	}
	if c.Claude.Model == "" {
		c.Claude.Model = defaults.Claude.Model
	}
	if c.Claude.TimeoutSeconds == 0 {
		c.Claude.TimeoutSeconds = defaults.Claude.TimeoutSeconds
	}

	// TTS defaults
	if c.TTS.Engine == "" {
		c.TTS.Engine = defaults.TTS.Engine
	}
	if c.TTS.Say.Voice == "" {
		c.TTS.Say.Voice = defaults.TTS.Say.Voice
	}
	if c.TTS.Say.Rate == 0 {
		c.TTS.Say.Rate = defaults.TTS.Say.Rate
	}
	if c.TTS.Kokoro.URL == "" {
		c.TTS.Kokoro.URL = defaults.TTS.Kokoro.URL
	}
	if c.TTS.Kokoro.Voice == "" {
		c.TTS.Kokoro.Voice = defaults.TTS.Kokoro.Voice
	}

	// Trigger defaults
	for i := range c.Triggers {
		if c.Triggers[i].CooldownSeconds == 0 {
			c.Triggers[i].CooldownSeconds = 60
		}
	}

	if c.HistorySize == 0 {
		c.HistorySize = defaults.HistorySize
	}

	// Webhook defaults
	if c.Notifications.Webhook.Preset == "" {
		c.Notifications.Webhook.Preset = "custom"
	}
	if c.Notifications.Webhook.Format == "" {
		c.Notifications.Webhook.Format = "json"
	}
	if c.Notifications.Webhook.Headers == nil {
		c.Notifications.Webhook.Headers = make(map[string]string)
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive (got %d)", c.Audio.SampleRate)
	}
	if c.Audio.VADThreshold < 0 || c.Audio.VADThreshold > 1 {
		return fmt.Errorf("vad threshold must be between 0.0 and 1.0 (got %.3f)", c.Audio.VADThreshold)
	}
	if c.Audio.SilenceSeconds <= 0 {
		return fmt.Errorf("silence duration must be positive (got %.2f)", c.Audio.SilenceSeconds)
	}
	if c.Audio.ChimeVolume < 0.0 || c.Audio.ChimeVolume > 1.0 {
		return fmt.Errorf("chime volume must be between 0.0 and 1.0 (got %.2f)", c.Audio.ChimeVolume)
	}

	// Validate TTS engine
	validEngines := map[string]bool{
		"say":    true,
		"kokoro": true,
	}
	if !validEngines[c.TTS.Engine] {
		return fmt.Errorf("invalid tts engine: %s (must be one of: say, kokoro)", c.TTS.Engine)
	}
	if c.TTS.Engine == "kokoro" && c.TTS.Kokoro.URL == "" {
		return fmt.Errorf("kokoro URL is required when the kokoro engine is selected")
	}

	// Validate triggers
	seen := make(map[string]bool)
	for i, t := range c.Triggers {
		if t.Name == "" {
			return fmt.Errorf("trigger %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate trigger name: %s", t.Name)
		}
		seen[t.Name] = true
		if len(t.Keywords) == 0 {
			return fmt.Errorf("trigger %s has no keywords", t.Name)
		}
		if t.Prompt == "" {
			return fmt.Errorf("trigger %s has no prompt", t.Name)
		}
		if t.CooldownSeconds < 0 {
			return fmt.Errorf("trigger %s cooldown must be >= 0", t.Name)
		}
	}

	// Validate notification method
	validMethods := map[string]bool{
		"":                  true, // empty means auto
		"auto":              true,
		"terminal-notifier": true,
		"beeep":             true,
	}
	if !validMethods[c.Notifications.Desktop.Method] {
		return fmt.Errorf("invalid notification method: %s (must be one of: auto, terminal-notifier, beeep)", c.Notifications.Desktop.Method)
	}

	// Validate webhook preset (only if webhooks are enabled)
	validPresets := map[string]bool{
		"slack":   true,
		"discord": true,
		"custom":  true,
	}
	if c.Notifications.Webhook.Enabled && !validPresets[c.Notifications.Webhook.Preset] {
		return fmt.Errorf("invalid webhook preset: %s (must be one of: slack, discord, custom)", c.Notifications.Webhook.Preset)
	}

	// Validate webhook format (only if webhooks are enabled)
	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if c.Notifications.Webhook.Enabled && !validFormats[c.Notifications.Webhook.Format] {
		return fmt.Errorf("invalid webhook format: %s (must be one of: json, text)", c.Notifications.Webhook.Format)
	}

	// Validate webhook URL if enabled
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("webhook URL is required when webhooks are enabled")
	}

	return nil
}

// GetTrigger returns the trigger with the given name
func (c *Config) GetTrigger(name string) (TriggerConfig, bool) {
	for _, t := range c.Triggers {
		if t.Name == name {
			return t, true
		}
	}
	return TriggerConfig{}, false
}

// IsDesktopEnabled returns true if desktop notifications are enabled
func (c *Config) IsDesktopEnabled() bool {
	return c.Notifications.Desktop.Enabled
}

// IsWebhookEnabled returns true if webhook notifications are enabled
func (c *Config) IsWebhookEnabled() bool {
	return c.Notifications.Webhook.Enabled
}

// ShouldSpeakResponses returns true if trigger responses should be spoken aloud (default: true)
func (c *Config) ShouldSpeakResponses() bool {
	if c.TTS.SpeakResponses == nil {
		return true // Default: speak responses
	}
	return *c.TTS.SpeakResponses
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandPath expands a leading ~ and any environment variables
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
