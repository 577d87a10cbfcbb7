package speaker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// KokoroSpeaker synthesizes speech on a kokoro TTS server and plays the
// returned audio on every playback device
type KokoroSpeaker struct {
	url      string
	voice    string
	client   *http.Client
	players  []*Player
	speaking *atomic.Bool
}

// NewKokoroSpeaker creates a kokoro-backed speaker. Each playback device
// gets its own player so speech can run on all of them concurrently.
func NewKokoroSpeaker(cfg *config.Config, speaking *atomic.Bool) (*KokoroSpeaker, error) {
	devices := playbackDevices(cfg.Audio.PlaybackDevices)
	players := make([]*Player, 0, len(devices))
	for _, device := range devices {
		p, err := NewPlayer(device, 1.0)
		if err != nil {
			for _, opened := range players {
				_ = opened.Close()
			}
			return nil, err
		}
		players = append(players, p)
	}

	return &KokoroSpeaker{
		url:      cfg.TTS.Kokoro.URL,
		voice:    cfg.TTS.Kokoro.Voice,
		client:   &http.Client{Timeout: 60 * time.Second},
		players:  players,
		speaking: speaking,
	}, nil
}

// Speak synthesizes text and plays it. The speaking flag is held only while
// audio is audible, not during synthesis, so capture stays live as long as
// possible.
func (k *KokoroSpeaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	samples, rate, channels, err := synthesizeKokoro(ctx, k.client, k.url, k.voice, text)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	k.speaking.Store(true)
	defer k.speaking.Store(false)

	g, _ := errgroup.WithContext(ctx)
	for _, p := range k.players {
		p := p
		g.Go(func() error {
			return p.PlayPCM(samples, rate, channels)
		})
	}
	return g.Wait()
}

// Close releases all playback devices
func (k *KokoroSpeaker) Close() error {
	for _, p := range k.players {
		_ = p.Close()
	}
	return nil
}

// kokoroRequest is the OpenAI-compatible speech request kokoro servers accept
type kokoroRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// synthesizeKokoro asks the server for a WAV rendition of text and decodes
// it to raw samples
func synthesizeKokoro(ctx context.Context, client *http.Client, url, voice, text string) ([]int16, uint32, int, error) {
	payload, err := json.Marshal(kokoroRequest{
		Model:          "kokoro",
		Input:          text,
		Voice:          voice,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, 0, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("calling kokoro server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading kokoro response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, 0, fmt.Errorf("kokoro server error (HTTP %d): %s", resp.StatusCode, string(body))
	}

	samples, rate, channels, err := decodeWAV(bytes.NewReader(body))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding kokoro audio: %w", err)
	}

	logging.Debug("Kokoro synthesized %d bytes in %v", len(body), time.Since(start).Round(time.Millisecond))
	return samples, rate, channels, nil
}
