// ABOUTME: CLI tool to list available audio capture and playback devices.
// ABOUTME: Used to find device names for the captureDevice/playbackDevices config options.

package main

import (
	"fmt"
	"os"

	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/speaker"
)

func main() {
	playback, err := speaker.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing playback devices: %v\n", err)
		os.Exit(1)
	}
	captureDevs, err := capture.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing capture devices: %v\n", err)
		os.Exit(1)
	}

	if len(playback) == 0 && len(captureDevs) == 0 {
		fmt.Println("No audio devices found.")
		os.Exit(0)
	}

	fmt.Println("Available playback devices:")
	fmt.Println()
	for i, dev := range playback {
		defaultMarker := ""
		if dev.IsDefault {
			defaultMarker = " (default)"
		}
		fmt.Printf("  %d: %s%s\n", i, dev.Name, defaultMarker)
	}

	fmt.Println()
	fmt.Println("Available capture devices:")
	fmt.Println()
	for i, dev := range captureDevs {
		defaultMarker := ""
		if dev.IsDefault {
			defaultMarker = " (default)"
		}
		fmt.Printf("  %d: %s%s\n", i, dev.Name, defaultMarker)
	}

	fmt.Println()
	fmt.Println("To use specific devices, add to config.yaml:")
	fmt.Println("  audio:")
	fmt.Println(`    captureDevice: "DEVICE_NAME"`)
	fmt.Println(`    playbackDevices: ["DEVICE_NAME"]`)
}
