package transcribe

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/config"
)

func testUtterance() capture.Utterance {
	return capture.Utterance{
		ID:      "test-utterance",
		Samples: []float32{0, 0.5, -0.5, 1.0, 0, 0.25},
		Rate:    16000,
	}
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, "json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "test-utterance.wav", header.Filename)

		// The upload must be a parseable WAV file
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		dec := wav.NewDecoder(bytes.NewReader(data))
		assert.True(t, dec.IsValidFile(), "upload should be a valid wav file")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  Hello from the standup.  "}`))
	}))
	defer server.Close()

	client := New(config.WhisperConfig{URL: server.URL, TimeoutSeconds: 5})
	text, err := client.Transcribe(context.Background(), testUtterance())
	require.NoError(t, err)
	assert.Equal(t, "Hello from the standup.", text)
}

func TestTranscribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "failed to load model"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(config.WhisperConfig{URL: server.URL, TimeoutSeconds: 5})
	_, err := client.Transcribe(context.Background(), testUtterance())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "failed to load model")
}

func TestTranscribeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(config.WhisperConfig{URL: server.URL, TimeoutSeconds: 5})
	_, err := client.Transcribe(context.Background(), testUtterance())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing whisper response")
}

func TestTranscribeContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "too late"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(config.WhisperConfig{URL: server.URL, TimeoutSeconds: 5})
	_, err := client.Transcribe(ctx, testUtterance())
	assert.Error(t, err)
}

func TestTranscribeServerUnreachable(t *testing.T) {
	client := New(config.WhisperConfig{URL: "http://127.0.0.1:1/inference", TimeoutSeconds: 1})
	_, err := client.Transcribe(context.Background(), testUtterance())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling whisper server")
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0}
	data, err := encodeWAV(samples, 16000)
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 16000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	assert.Equal(t, []int{0, 16383, -16383, 32767}, buf.Data)
}

func TestEncodeWAVEmpty(t *testing.T) {
	data, err := encodeWAV(nil, 16000)
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	assert.True(t, dec.IsValidFile())
}

func TestSeekBuffer(t *testing.T) {
	var buf seekBuffer

	n, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	// Seek back and patch, the way the wav encoder fixes up chunk sizes
	pos, err := buf.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	_, err = buf.Write([]byte("HELLO"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO world", string(buf.Bytes()))

	// Seek past the end then write extends the buffer
	_, err = buf.Seek(2, io.SeekEnd)
	require.NoError(t, err)
	_, err = buf.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, 14, len(buf.Bytes()))

	_, err = buf.Seek(-100, io.SeekStart)
	assert.Error(t, err)
}
