// ABOUTME: Session orchestrator wiring capture, transcription, analysis, and speech together.
// ABOUTME: Runs the utterance pipeline and exposes the controls the TUI drives.
package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/777genius/standupbot/internal/analyzer"
	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
	"github.com/777genius/standupbot/internal/notifier"
	"github.com/777genius/standupbot/internal/speaker"
	"github.com/777genius/standupbot/internal/transcribe"
	"github.com/777genius/standupbot/internal/webhook"
)

// minTranscriptChars filters out whisper artifacts like "." or "uh"
const minTranscriptChars = 3

// EventKind tells the UI what an event carries
type EventKind int

const (
	// EventTranscript is an utterance that survived transcription
	EventTranscript EventKind = iota
	// EventThinking means a trigger fired and claude is working
	EventThinking
	// EventResponse carries claude's answer for a fired trigger
	EventResponse
	// EventNotice is an out-of-band condition worth showing (errors, drops)
	EventNotice
)

// Event is what the bot publishes to the UI
type Event struct {
	Kind    EventKind
	Trigger string // trigger name for EventThinking and EventResponse
	Keyword string // matched keyword, or analyzer.ManualKeyword
	Text    string
}

// recorderInterface defines what the bot needs from the audio capture layer
type recorderInterface interface {
	Start(ctx context.Context) (<-chan capture.Utterance, error)
	Close() error
}

// transcriberInterface defines the speech-to-text dependency
type transcriberInterface interface {
	Transcribe(ctx context.Context, utt capture.Utterance) (string, error)
}

// analyzerInterface defines trigger matching and response generation
type analyzerInterface interface {
	AddToHistory(text string)
	CheckKeywords(text string) (config.TriggerConfig, string, bool)
	GenerateResponse(ctx context.Context, trigger config.TriggerConfig, transcript string) (string, error)
	ForceTrigger(ctx context.Context, trigger config.TriggerConfig) (*analyzer.TriggerMatch, error)
}

// speakerInterface defines the text-to-speech dependency
type speakerInterface interface {
	Speak(ctx context.Context, text string) error
	Close() error
}

// notifierInterface defines the desktop notification dependency
type notifierInterface interface {
	SendDesktop(trigger, response string) error
	Close() error
}

// webhookInterface defines the webhook notification dependency
type webhookInterface interface {
	SendAsync(event webhook.Event, message, sessionID string)
	Shutdown(timeout time.Duration) error
}

// chimeInterface plays the trigger acknowledgment sound
type chimeInterface interface {
	Play() error
}

// Bot owns one meeting session: the capture pipeline and everything
// downstream of it.
type Bot struct {
	cfg       *config.Config
	sessionID string
	startedAt time.Time

	recorderSvc    recorderInterface
	transcriberSvc transcriberInterface
	analyzerSvc    analyzerInterface
	speakerSvc     speakerInterface
	notifierSvc    notifierInterface
	webhookSvc     webhookInterface
	chimeSvc       chimeInterface

	paused     atomic.Bool
	triggersOn atomic.Bool

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// New builds a bot with real dependencies. It fails when the capture device
// is missing or the TTS engine cannot be constructed.
func New(cfg *config.Config) (*Bot, error) {
	speaking := &atomic.Bool{}

	rec, err := capture.NewRecorder(cfg.Audio, speaking)
	if err != nil {
		return nil, fmt.Errorf("initializing capture: %w", err)
	}

	spk, err := speaker.New(cfg, speaking)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("initializing speech: %w", err)
	}

	return &Bot{
		cfg:            cfg,
		sessionID:      uuid.NewString(),
		recorderSvc:    rec,
		transcriberSvc: transcribe.New(cfg.Whisper),
		analyzerSvc:    analyzer.New(cfg),
		speakerSvc:     spk,
		notifierSvc:    notifier.New(cfg),
		webhookSvc:     webhook.New(cfg),
		chimeSvc:       speaker.NewChime(cfg.Audio),
		events:         make(chan Event, 64),
	}, nil
}

// Events is the stream the UI renders. It is never closed; consumers stop
// reading when they shut the bot down.
func (b *Bot) Events() <-chan Event {
	return b.events
}

// SessionID identifies this meeting session in logs and webhooks
func (b *Bot) SessionID() string {
	return b.sessionID
}

// Start opens the capture stream and runs the pipeline until Stop or until
// the context is cancelled. Auto-triggers start disabled; utterances are
// transcribed and remembered either way.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	b.startedAt = time.Now()

	logging.SetPrefix(fmt.Sprintf("session:%.8s", b.sessionID))

	utterances, err := b.recorderSvc.Start(b.ctx)
	if err != nil {
		b.cancel()
		// The pipeline goroutine never runs, so Stop must not wait on it
		close(b.done)
		return fmt.Errorf("starting capture: %w", err)
	}

	go b.pipeline(utterances)

	b.webhookSvc.SendAsync(webhook.EventSessionStarted,
		fmt.Sprintf("Listening on %q", b.cfg.Audio.CaptureDevice), b.sessionID)
	logging.Info("Session %s started", b.sessionID)
	return nil
}

// Stop tears the session down: stops capture, waits for in-flight work, and
// flushes notifications.
func (b *Bot) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
	b.wg.Wait()

	defer func() {
		if err := b.recorderSvc.Close(); err != nil {
			logging.Warn("Failed to close recorder: %v", err)
		}
	}()
	defer func() {
		if err := b.speakerSvc.Close(); err != nil {
			logging.Warn("Failed to close speaker: %v", err)
		}
	}()
	defer func() {
		if err := b.notifierSvc.Close(); err != nil {
			logging.Warn("Failed to close notifier: %v", err)
		}
	}()

	elapsed := time.Since(b.startedAt).Round(time.Second)
	b.webhookSvc.SendAsync(webhook.EventSessionStopped,
		fmt.Sprintf("Session ended after %s", elapsed), b.sessionID)
	if err := b.webhookSvc.Shutdown(5 * time.Second); err != nil {
		logging.Warn("Failed to shutdown webhook sender: %v", err)
	}

	logging.Info("Session %s stopped after %s", b.sessionID, elapsed)
}

// TogglePause flips the pause state and returns the new value. While paused,
// captured utterances are dropped before transcription.
func (b *Bot) TogglePause() bool {
	paused := !b.paused.Load()
	b.paused.Store(paused)
	if paused {
		logging.Info("Paused")
	} else {
		logging.Info("Resumed")
	}
	return paused
}

// Paused reports whether the pipeline is dropping utterances
func (b *Bot) Paused() bool {
	return b.paused.Load()
}

// ToggleTriggers flips automatic keyword triggering and returns the new value
func (b *Bot) ToggleTriggers() bool {
	on := !b.triggersOn.Load()
	b.triggersOn.Store(on)
	logging.Info("Auto-triggers: %v", on)
	return on
}

// TriggersEnabled reports whether keyword triggers fire automatically
func (b *Bot) TriggersEnabled() bool {
	return b.triggersOn.Load()
}

// ManualTrigger fires the numbered trigger by hand, off the latest utterance,
// ignoring keywords and cooldowns. Runs in the background so key handling
// never waits on claude.
func (b *Bot) ManualTrigger(index int) {
	if index < 0 || index >= len(b.cfg.Triggers) {
		return
	}
	trigger := b.cfg.Triggers[index]
	logging.Info("Manual trigger: %s", trigger.Name)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.recoverPanic("manual trigger")

		b.emit(Event{Kind: EventThinking, Trigger: trigger.Name, Keyword: analyzer.ManualKeyword})
		if err := b.chimeSvc.Play(); err != nil {
			logging.Warn("Chime failed: %v", err)
		}

		match, err := b.analyzerSvc.ForceTrigger(b.ctx, trigger)
		if err != nil {
			logging.Error("Manual trigger %s failed: %v", trigger.Name, err)
			b.emit(Event{Kind: EventNotice, Text: fmt.Sprintf("Claude failed: %v", err)})
			b.webhookSvc.SendAsync(webhook.EventError, err.Error(), b.sessionID)
			return
		}
		b.deliver(match.Trigger.Name, match.Keyword, match.Response)
	}()
}

func (b *Bot) pipeline(utterances <-chan capture.Utterance) {
	defer close(b.done)
	defer b.recoverPanic("pipeline")

	for {
		select {
		case <-b.ctx.Done():
			return
		case utt, ok := <-utterances:
			if !ok {
				return
			}
			b.handleUtterance(utt)
		}
	}
}

func (b *Bot) handleUtterance(utt capture.Utterance) {
	defer b.recoverPanic("utterance handling")

	if b.paused.Load() {
		logging.Debug("Paused, dropping %.1fs utterance", utt.Duration().Seconds())
		return
	}

	text, err := b.transcriberSvc.Transcribe(b.ctx, utt)
	if err != nil {
		if b.ctx.Err() != nil {
			return
		}
		logging.Warn("Transcription failed: %v", err)
		b.emit(Event{Kind: EventNotice, Text: fmt.Sprintf("Transcription failed: %v", err)})
		return
	}
	if len([]rune(text)) < minTranscriptChars {
		logging.Debug("Transcript too short, skipping: %q", text)
		return
	}

	logging.Info("Heard: %s", text)
	b.emit(Event{Kind: EventTranscript, Text: text})
	b.analyzerSvc.AddToHistory(text)

	if !b.triggersOn.Load() {
		return
	}
	trigger, keyword, ok := b.analyzerSvc.CheckKeywords(text)
	if !ok {
		return
	}

	b.emit(Event{Kind: EventThinking, Trigger: trigger.Name, Keyword: keyword})
	if err := b.chimeSvc.Play(); err != nil {
		logging.Warn("Chime failed: %v", err)
	}

	response, err := b.analyzerSvc.GenerateResponse(b.ctx, trigger, text)
	if err != nil {
		logging.Error("Response generation for %s failed: %v", trigger.Name, err)
		b.emit(Event{Kind: EventNotice, Text: fmt.Sprintf("Claude failed: %v", err)})
		b.webhookSvc.SendAsync(webhook.EventError, err.Error(), b.sessionID)
		return
	}

	b.deliver(trigger.Name, keyword, response)
}

// deliver fans a generated response out to the UI, desktop, webhook, and
// the meeting audio.
func (b *Bot) deliver(trigger, keyword, response string) {
	b.emit(Event{Kind: EventResponse, Trigger: trigger, Keyword: keyword, Text: response})

	if err := b.notifierSvc.SendDesktop(trigger, response); err != nil {
		logging.Warn("Desktop notification failed: %v", err)
	}
	b.webhookSvc.SendAsync(webhook.EventResponse, response, b.sessionID)

	if b.cfg.ShouldSpeakResponses() {
		// say would read the markdown syntax out loud
		spoken := notifier.CleanMarkdown(response)
		if err := b.speakerSvc.Speak(b.ctx, spoken); err != nil && b.ctx.Err() == nil {
			logging.Warn("Speech failed: %v", err)
			b.emit(Event{Kind: EventNotice, Text: fmt.Sprintf("Speech failed: %v", err)})
		}
	}
}

// emit publishes without blocking; a stalled UI drops events rather than
// stalling the pipeline.
func (b *Bot) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		logging.Debug("Event dropped, UI not keeping up")
	}
}

func (b *Bot) recoverPanic(where string) {
	if r := recover(); r != nil {
		logging.Error("Panic in %s: %v", where, r)
	}
}
