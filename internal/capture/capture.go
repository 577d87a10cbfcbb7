// ABOUTME: Microphone capture with energy-based utterance segmentation.
// ABOUTME: Uses malgo (miniaudio bindings) for cross-platform audio input.

package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// Utterance is one continuous stretch of speech cut out of the capture
// stream, mono float32 at the configured sample rate.
type Utterance struct {
	ID      string
	Samples []float32
	Rate    int
}

// Duration returns the utterance length in wall time.
func (u Utterance) Duration() time.Duration {
	if u.Rate == 0 {
		return 0
	}
	return time.Duration(float64(len(u.Samples)) / float64(u.Rate) * float64(time.Second))
}

// DeviceInfo represents an audio capture device
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// ListDevices returns all available audio capture devices
func ListDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		result = append(result, DeviceInfo{
			Name:      dev.Name(),
			IsDefault: dev.IsDefault != 0,
		})
	}

	return result, nil
}

// Recorder captures mono audio from a named device and emits utterances.
// While suppress is set, incoming frames are discarded so the bot does not
// transcribe its own speech.
type Recorder struct {
	cfg      config.AudioConfig
	suppress *atomic.Bool
	ctx      *malgo.AllocatedContext
	deviceID unsafe.Pointer
}

// NewRecorder creates a recorder bound to the configured capture device
func NewRecorder(cfg config.AudioConfig, suppress *atomic.Bool) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}

	rec := &Recorder{
		cfg:      cfg,
		suppress: suppress,
		ctx:      ctx,
	}

	// Find the device by name if specified
	if cfg.CaptureDevice != "" {
		devices, err := ctx.Devices(malgo.Capture)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("failed to enumerate devices: %w", err)
		}

		var found bool
		for _, dev := range devices {
			if dev.Name() == cfg.CaptureDevice {
				rec.deviceID = dev.ID.Pointer()
				found = true
				logging.Debug("Capture device found: %s", cfg.CaptureDevice)
				break
			}
		}

		if !found {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("capture device not found: %s", cfg.CaptureDevice)
		}
	}

	return rec, nil
}

// Start begins capturing. The returned channel delivers utterances until ctx
// is cancelled, then closes. Start may be called once per Recorder.
func (r *Recorder) Start(ctx context.Context) (<-chan Utterance, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(r.cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = 1024
	deviceConfig.Alsa.NoMMap = 1

	if r.deviceID != nil {
		deviceConfig.Capture.DeviceID = r.deviceID
	}

	seg := newSegmenter(r.cfg.VADThreshold, r.cfg.SampleRate, r.cfg.SilenceSeconds, r.cfg.MinSpeechSecs)
	out := make(chan Utterance, 8)

	// Runs on the audio thread
	dataCallback := func(outputSamples, inputSamples []byte, frameCount uint32) {
		if r.suppress != nil && r.suppress.Load() {
			return // skip frames while the bot is speaking
		}

		samples, ok := seg.push(bytesToFloat32(inputSamples))
		if !ok {
			return
		}

		utt := Utterance{
			ID:      uuid.NewString(),
			Samples: samples,
			Rate:    r.cfg.SampleRate,
		}
		select {
		case out <- utt:
		default:
			logging.Warn("Utterance dropped, pipeline is backed up (%.1fs of audio)", utt.Duration().Seconds())
		}
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: dataCallback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	logging.Info("Capturing from %q at %d Hz", r.cfg.CaptureDevice, r.cfg.SampleRate)

	go func() {
		<-ctx.Done()
		_ = device.Stop()
		device.Uninit()
		close(out)
	}()

	return out, nil
}

// Close releases the audio context. Cancel the Start context first.
func (r *Recorder) Close() error {
	if r.ctx != nil {
		_ = r.ctx.Uninit()
		r.ctx.Free()
		r.ctx = nil
	}
	return nil
}

// bytesToFloat32 reinterprets raw capture bytes as float32 samples
func bytesToFloat32(b []byte) []float32 {
	samples := make([]float32, len(b)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return samples
}
