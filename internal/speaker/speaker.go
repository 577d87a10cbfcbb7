package speaker

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// Speaker converts trigger responses into audible speech. While audio is
// playing the speaking flag is held, which mutes capture so the bot never
// transcribes itself.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Close() error
}

// New returns the speaker for the configured TTS engine
func New(cfg *config.Config, speaking *atomic.Bool) (Speaker, error) {
	switch cfg.TTS.Engine {
	case "kokoro":
		return NewKokoroSpeaker(cfg, speaking)
	case "say":
		return NewSaySpeaker(cfg, speaking), nil
	default:
		return nil, fmt.Errorf("unknown tts engine: %s", cfg.TTS.Engine)
	}
}

// SaySpeaker shells out to the macOS say command, once per playback device
type SaySpeaker struct {
	voice    string
	rate     int
	devices  []string
	speaking *atomic.Bool
}

// NewSaySpeaker creates a say-backed speaker from config
func NewSaySpeaker(cfg *config.Config, speaking *atomic.Bool) *SaySpeaker {
	return &SaySpeaker{
		voice:    cfg.TTS.Say.Voice,
		rate:     cfg.TTS.Say.Rate,
		devices:  playbackDevices(cfg.Audio.PlaybackDevices),
		speaking: speaking,
	}
}

// Speak runs say concurrently on every playback device and blocks until the
// slowest one finishes
func (s *SaySpeaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	s.speaking.Store(true)
	defer s.speaking.Store(false)

	g, ctx := errgroup.WithContext(ctx)
	for _, device := range s.devices {
		device := device
		g.Go(func() error {
			return s.sayOnDevice(ctx, text, device)
		})
	}
	return g.Wait()
}

func (s *SaySpeaker) sayOnDevice(ctx context.Context, text, device string) error {
	cmd := exec.CommandContext(ctx, "say", buildSayArgs(s.voice, s.rate, device, text)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("say on device %q: %w", device, err)
	}
	logging.Debug("say finished on %q", device)
	return nil
}

// Close implements Speaker. say holds no resources.
func (s *SaySpeaker) Close() error {
	return nil
}

// buildSayArgs constructs the say argument list. An empty device means the
// system default output.
func buildSayArgs(voice string, rate int, device, text string) []string {
	args := []string{"-v", voice, "-r", strconv.Itoa(rate)}
	if device != "" {
		args = append(args, "-a", device)
	}
	return append(args, text)
}

// playbackDevices normalizes the configured device list. An empty list
// becomes the single system default device.
func playbackDevices(devices []string) []string {
	if len(devices) == 0 {
		return []string{""}
	}
	return devices
}
