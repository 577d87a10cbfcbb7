package main

import (
	"github.com/spf13/cobra"

	"github.com/777genius/standupbot/internal/config"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "standupbot",
		Short:        "A meeting bot that listens, transcribes, and answers on trigger keywords",
		Long:         "standupbot captures meeting audio from a loopback device, transcribes it with a whisper.cpp server, matches trigger keywords, and speaks claude-generated replies back into the meeting.",
		SilenceUsage: true,
	}

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("standupbot " + version + "\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")

	rootCmd.AddCommand(newRunCmd(&configPath))
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newDoctorCmd(&configPath))

	return rootCmd
}

// loadConfig reads and validates the config file. A missing file is fine;
// defaults apply.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
