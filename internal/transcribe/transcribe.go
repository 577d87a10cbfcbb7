// Package transcribe turns captured utterances into text by sending them to
// a whisper.cpp server. The server expects a WAV upload on /inference and
// answers with JSON.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// Client sends utterance audio to a whisper.cpp server
type Client struct {
	url    string
	client *http.Client
}

// New creates a transcription client from config
func New(cfg config.WhisperConfig) *Client {
	return &Client{
		url: cfg.URL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Transcribe uploads one utterance and returns the recognized text,
// whitespace-trimmed. An empty string means the server heard nothing usable.
func (c *Client) Transcribe(ctx context.Context, utt capture.Utterance) (string, error) {
	wavData, err := encodeWAV(utt.Samples, utt.Rate)
	if err != nil {
		return "", fmt.Errorf("encoding utterance: %w", err)
	}

	// Build multipart request
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := writer.WriteField("temperature", "0.0"); err != nil {
		return "", err
	}

	part, err := writer.CreateFormFile("file", utt.ID+".wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(wavData); err != nil {
		return "", err
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling whisper server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper server error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing whisper response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	logging.Debug("Transcribed %.1fs of audio in %v: %q", utt.Duration().Seconds(), time.Since(start).Round(time.Millisecond), text)
	return text, nil
}
