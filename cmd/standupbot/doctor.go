package main

import (
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/multiout"
	"github.com/777genius/standupbot/internal/speaker"
)

func newDoctorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites for a listening session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ok := true

			captureDevs, err := capture.ListDevices()
			if err != nil {
				return fmt.Errorf("listing capture devices: %w", err)
			}
			if hasDeviceFold(captureNames(captureDevs), cfg.Audio.CaptureDevice) {
				check(out, true, "Capture device", "%q found", cfg.Audio.CaptureDevice)
			} else {
				check(out, false, "Capture device", "%q not found. Install BlackHole: brew install blackhole-2ch", cfg.Audio.CaptureDevice)
				ok = false
			}

			playback, err := speaker.ListDevices()
			if err != nil {
				return fmt.Errorf("listing playback devices: %w", err)
			}
			if hasDevice(playbackNames(playback), multiout.AggregateName) {
				check(out, true, multiout.AggregateName, "exists")
			} else {
				check(out, false, multiout.AggregateName, "missing. Create it with: standupbot setup")
				ok = false
			}

			if reachable(cfg.Whisper.URL) {
				check(out, true, "Whisper server", "reachable at %s", cfg.Whisper.URL)
			} else {
				check(out, false, "Whisper server", "unreachable at %s. Start whisper.cpp: whisper-server -m <model>", cfg.Whisper.URL)
				ok = false
			}

			if _, err := exec.LookPath(cfg.Claude.Binary); err != nil {
				check(out, false, "claude binary", "%q not on PATH", cfg.Claude.Binary)
				ok = false
			} else {
				check(out, true, "claude binary", "%q found", cfg.Claude.Binary)
			}

			switch cfg.TTS.Engine {
			case "say":
				if _, err := exec.LookPath("say"); err != nil {
					check(out, false, "say command", "not found (say TTS is macOS only)")
					ok = false
				} else {
					check(out, true, "say command", "found")
				}
			case "kokoro":
				if reachable(cfg.TTS.Kokoro.URL) {
					check(out, true, "Kokoro server", "reachable at %s", cfg.TTS.Kokoro.URL)
				} else {
					check(out, false, "Kokoro server", "unreachable at %s", cfg.TTS.Kokoro.URL)
					ok = false
				}
			}

			fmt.Fprintln(out)
			if ok {
				fmt.Fprintln(out, "All prerequisites met. Ready to listen!")
			} else {
				fmt.Fprintln(out, "Some prerequisites are missing. Fix them before running a session.")
			}
			return nil
		},
	}
}

func check(out io.Writer, ok bool, name, format string, args ...interface{}) {
	mark := "✓"
	if !ok {
		mark = "✗"
	}
	fmt.Fprintf(out, "%s %s: %s\n", mark, name, fmt.Sprintf(format, args...))
}

// reachable probes the URL with a short GET. Any HTTP response counts; the
// endpoints here are POST-only and answer 404/405 to probes, which still
// proves the server is up.
func reachable(url string) bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func hasDevice(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func hasDeviceFold(names []string, want string) bool {
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return true
		}
	}
	return false
}

func captureNames(devs []capture.DeviceInfo) []string {
	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = d.Name
	}
	return names
}

func playbackNames(devs []speaker.DeviceInfo) []string {
	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = d.Name
	}
	return names
}
