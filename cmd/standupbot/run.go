package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/777genius/standupbot/internal/bot"
	"github.com/777genius/standupbot/internal/logging"
	"github.com/777genius/standupbot/internal/tui"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start a listening session with the live TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			// The TUI owns the terminal; log lines go to the file only.
			if err := logging.InitLogger(cfg.Logging.Level, cfg.Logging.File, false); err != nil {
				return err
			}
			defer logging.Close()

			b, err := bot.New(cfg)
			if err != nil {
				return err
			}
			if err := b.Start(context.Background()); err != nil {
				return err
			}
			defer b.Stop()

			program := tea.NewProgram(tui.New(b, cfg.Triggers), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("running UI: %w", err)
			}
			return nil
		},
	}
}
