// ABOUTME: CLI tool for previewing the trigger chime outside a bot session.
// ABOUTME: Resolves sound, volume, and device from config.yaml; flags and the argument override.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/speaker"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Config file path")
	volumeFlag := flag.Float64("volume", -1, "Volume level 0.0 to 1.0 (default: chimeVolume from config)")
	deviceFlag := flag.String("device", "", "Audio output device name (empty = system default)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chime-preview [options] [path-to-audio-file]\n\n")
		fmt.Fprintf(os.Stderr, "Plays the configured chime (audio.chimeSound) at the configured volume,\n")
		fmt.Fprintf(os.Stderr, "or another file passed as argument. Use it to tune the chime settings\n")
		fmt.Fprintf(os.Stderr, "without running a session.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats: MP3, WAV, FLAC, OGG/Vorbis, AIFF\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  chime-preview\n")
		fmt.Fprintf(os.Stderr, "  chime-preview --volume 0.3 /System/Library/Sounds/Glass.aiff\n")
		fmt.Fprintf(os.Stderr, "  chime-preview --device \"Multi-Output Device\"\n")
		fmt.Fprintf(os.Stderr, "\nList available devices:\n")
		fmt.Fprintf(os.Stderr, "  list-devices\n")
	}
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	soundPath, volume, err := resolvePreview(cfg, flag.Arg(0), *volumeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(soundPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: Sound file not found: %s\n", soundPath)
		os.Exit(1)
	}

	if *deviceFlag != "" {
		fmt.Printf("🔊 Playing: %s (volume: %d%%, device: %s)\n", filepath.Base(soundPath), int(volume*100), *deviceFlag)
	} else {
		fmt.Printf("🔊 Playing: %s (volume: %d%%)\n", filepath.Base(soundPath), int(volume*100))
	}

	player, err := speaker.NewPlayer(*deviceFlag, volume)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating audio player: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()

	if err := player.Play(soundPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error playing sound: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Playback completed")
}

// resolvePreview picks the sound and volume for this run: the argument and
// --volume win, the config fills the gaps. A negative volumeFlag means the
// flag was not given.
func resolvePreview(cfg *config.Config, arg string, volumeFlag float64) (string, float64, error) {
	soundPath := arg
	if soundPath == "" {
		soundPath = cfg.Audio.ChimeSound
	}
	if soundPath == "" {
		return "", 0, fmt.Errorf("no chime sound configured and no file given (set audio.chimeSound or pass a path)")
	}

	volume := volumeFlag
	if volume < 0 {
		volume = cfg.Audio.ChimeVolume
	}
	if volume < 0.0 || volume > 1.0 {
		return "", 0, fmt.Errorf("volume must be between 0.0 and 1.0 (got %.2f)", volume)
	}

	return soundPath, volume, nil
}
