package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/777genius/standupbot/internal/capture"
	"github.com/777genius/standupbot/internal/speaker"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture and playback devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			playback, err := speaker.ListDevices()
			if err != nil {
				return fmt.Errorf("listing playback devices: %w", err)
			}
			captureDevs, err := capture.ListDevices()
			if err != nil {
				return fmt.Errorf("listing capture devices: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Playback devices:")
			for i, dev := range playback {
				marker := ""
				if dev.IsDefault {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  %d: %s%s\n", i, dev.Name, marker)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Capture devices:")
			for i, dev := range captureDevs {
				marker := ""
				if dev.IsDefault {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  %d: %s%s\n", i, dev.Name, marker)
			}
			return nil
		},
	}
}
