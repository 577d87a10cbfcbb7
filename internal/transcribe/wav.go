package transcribe

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeWAV renders float32 samples as a 16-bit mono PCM WAV file in memory.
func encodeWAV(samples []float32, rate int) ([]byte, error) {
	var buf seekBuffer
	enc := wav.NewEncoder(&buf, rate, 16, 1, 1)

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return buf.Bytes(), nil
}

// seekBuffer is an in-memory io.WriteSeeker. The wav encoder needs to seek
// back and patch the RIFF chunk sizes on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}

func (b *seekBuffer) Bytes() []byte {
	return b.data
}
