package cmd

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/preview"
	"github.com/lehigh-university-libraries/herobanner/internal/slots"
	"github.com/lehigh-university-libraries/herobanner/internal/tui"
)

func newPanelCmd(a *app) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive hero image admin panel",
		Long: `Opens a terminal panel with one tab per hero image plus a "+ new" tab.

Pick a tab, open an image file, and press enter to upload it into the new slot
or replace the image in an existing slot. Logs go to --log-file while the panel
is on screen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			setupLogging(f, a.cfg.Log.Level, a.verbose)

			previews, err := preview.NewStore(a.cfg.Slots.PreviewDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := previews.Close(); err != nil {
					slog.Error("Failed to remove previews", "err", err)
				}
			}()

			client := adminapi.NewClient(a.cfg.API.URL, a.cfg.API.Token, a.cfg.API.Timeout)
			ctrl := slots.New(client, previews, a.cfg.Slots.LabelPrefix)
			defer ctrl.Close()

			panel := tui.New(ctx, ctrl, client.Logout)
			if _, err := tea.NewProgram(panel, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("panel failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "herobanner-panel.log", "File to write logs to while the panel runs")

	return cmd
}
