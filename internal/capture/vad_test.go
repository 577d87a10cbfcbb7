package capture

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

const testRate = 16000

// frame builds a chunk of constant amplitude, so its RMS equals the amplitude.
func frame(t *testing.T, amplitude float32, n int) []float32 {
	t.Helper()
	chunk := make([]float32, n)
	for i := range chunk {
		chunk[i] = amplitude
	}
	return chunk
}

func TestSegmenterEmitsAfterSilence(t *testing.T) {
	// 1.5s of silence at 16kHz = 24000 samples
	seg := newSegmenter(0.01, testRate, 1.5, 0)

	// One second of speech
	if _, ok := seg.push(frame(t, 0.5, testRate)); ok {
		t.Fatal("utterance emitted while speech is still running")
	}

	// Silence just below the threshold keeps accumulating
	if _, ok := seg.push(frame(t, 0.001, 23999)); ok {
		t.Fatal("utterance emitted before enough silence")
	}

	// One more quiet sample crosses the line
	utt, ok := seg.push(frame(t, 0.001, 1))
	if !ok {
		t.Fatal("expected utterance after silence threshold")
	}

	// Speech plus all trailing silence
	want := testRate + 24000
	if len(utt) != want {
		t.Errorf("utterance length = %d, want %d (trailing silence included)", len(utt), want)
	}
}

func TestSegmenterIgnoresLeadingSilence(t *testing.T) {
	seg := newSegmenter(0.01, testRate, 1.5, 0)

	// Quiet room before anyone talks
	for i := 0; i < 10; i++ {
		if _, ok := seg.push(frame(t, 0.0, 1024)); ok {
			t.Fatal("utterance emitted from pure silence")
		}
	}

	seg.push(frame(t, 0.5, testRate))
	utt, ok := seg.push(frame(t, 0.0, 24000))
	if !ok {
		t.Fatal("expected utterance")
	}
	if len(utt) != testRate+24000 {
		t.Errorf("leading silence leaked into utterance: len = %d", len(utt))
	}
}

func TestSegmenterSpeechResetsSilenceRun(t *testing.T) {
	seg := newSegmenter(0.01, testRate, 1.5, 0)

	seg.push(frame(t, 0.5, testRate))
	// A short pause, then the speaker continues
	if _, ok := seg.push(frame(t, 0.0, 8000)); ok {
		t.Fatal("half a second of silence should not close the utterance")
	}
	seg.push(frame(t, 0.5, testRate))

	utt, ok := seg.push(frame(t, 0.0, 24000))
	if !ok {
		t.Fatal("expected utterance")
	}
	// Both speech stretches and the mid-pause belong to one utterance
	want := testRate + 8000 + testRate + 24000
	if len(utt) != want {
		t.Errorf("utterance length = %d, want %d", len(utt), want)
	}
}

func TestSegmenterDropsShortBlips(t *testing.T) {
	// Require at least 0.3s of speech
	seg := newSegmenter(0.01, testRate, 1.5, 0.3)

	// A door slam: 50ms above threshold
	seg.push(frame(t, 0.8, 800))
	if _, ok := seg.push(frame(t, 0.0, 24000)); ok {
		t.Error("blip shorter than minSpeech should be dropped")
	}

	// State is clean afterwards: a real utterance still comes through
	seg.push(frame(t, 0.5, testRate))
	if _, ok := seg.push(frame(t, 0.0, 24000)); !ok {
		t.Error("real utterance after a dropped blip should be emitted")
	}
}

func TestSegmenterEmptyChunk(t *testing.T) {
	seg := newSegmenter(0.01, testRate, 1.5, 0)
	if _, ok := seg.push(nil); ok {
		t.Error("empty chunk must not emit")
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name  string
		chunk []float32
		want  float64
	}{
		{"silence", []float32{0, 0, 0, 0}, 0},
		{"constant half", []float32{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"alternating sign", []float32{0.5, -0.5, 0.5, -0.5}, 0.5},
		{"single sample", []float32{1.0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rms(tt.chunk)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("rms() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBytesToFloat32(t *testing.T) {
	want := []float32{0, 1.0, -0.25, 0.01}
	raw := make([]byte, len(want)*4)
	for i, v := range want {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	got := bytesToFloat32(raw)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUtteranceDuration(t *testing.T) {
	utt := Utterance{Samples: make([]float32, testRate), Rate: testRate}
	if d := utt.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}

	half := Utterance{Samples: make([]float32, testRate/2), Rate: testRate}
	if d := half.Duration(); d != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", d)
	}

	if d := (Utterance{}).Duration(); d != 0 {
		t.Errorf("empty utterance Duration() = %v, want 0", d)
	}
}
