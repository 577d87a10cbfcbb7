package capture

import "math"

// segmenter accumulates capture frames into complete utterances using
// energy-based voice activity detection. Frames above the threshold extend
// the current utterance; once enough consecutive silence has accumulated the
// utterance is emitted. Trailing silence is kept so speech does not end
// abruptly, leading silence is never buffered.
type segmenter struct {
	threshold     float64
	silenceTarget int // samples of silence that close an utterance
	minSpeech     int // utterances with fewer speech samples are dropped

	buf        []float32
	speech     int
	silenceRun int
}

func newSegmenter(threshold float64, sampleRate int, silenceSecs, minSpeechSecs float64) *segmenter {
	return &segmenter{
		threshold:     threshold,
		silenceTarget: int(silenceSecs * float64(sampleRate)),
		minSpeech:     int(minSpeechSecs * float64(sampleRate)),
	}
}

// push feeds one frame of samples and returns a completed utterance, if any.
func (s *segmenter) push(chunk []float32) ([]float32, bool) {
	if len(chunk) == 0 {
		return nil, false
	}

	if rms(chunk) >= s.threshold {
		s.buf = append(s.buf, chunk...)
		s.speech += len(chunk)
		s.silenceRun = 0
		return nil, false
	}

	// Quiet frame before any speech: nothing to accumulate
	if len(s.buf) == 0 {
		return nil, false
	}

	s.buf = append(s.buf, chunk...)
	s.silenceRun += len(chunk)
	if s.silenceRun < s.silenceTarget {
		return nil, false
	}

	utterance := s.buf
	speech := s.speech
	s.buf = nil
	s.speech = 0
	s.silenceRun = 0

	if speech < s.minSpeech {
		return nil, false
	}
	return utterance, true
}

// rms computes the root mean square energy of a frame.
func rms(chunk []float32) float64 {
	var sum float64
	for _, v := range chunk {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(chunk)))
}
