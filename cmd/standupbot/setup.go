package main

import (
	"github.com/spf13/cobra"

	"github.com/777genius/standupbot/internal/coreaudio"
	"github.com/777genius/standupbot/internal/multiout"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the Multi-Output Device the bot listens through",
		Long:  "Provision a stacked aggregate device combining the built-in speakers and BlackHole 2ch, so the meeting audio reaches both the room and the bot. Same pipeline as the standalone setup-audio tool.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := multiout.NewRunner(coreaudio.New(), cmd.OutOrStdout())
			_, err := runner.Run()
			return err
		},
	}
}
