package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/herobanner/internal/config"
)

type app struct {
	cfg     config.Config
	verbose bool
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "herobanner",
		Short: "Manage the rotating hero images on the library home page",
		Long: `Herobanner manages the up to 8 hero images shown on the library home page.

It runs the admin API that stores images in Google Cloud Storage (or on disk),
and ships a terminal admin panel plus scriptable commands that talk to it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			setupLogging(os.Stderr, cfg.Log.Level, a.verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newPanelCmd(a))
	cmd.AddCommand(newImagesCmd(a))

	return cmd
}

func setupLogging(w io.Writer, level string, verbose bool) {
	logLevel := parseLevel(level)
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", level)
		return slog.LevelInfo
	}
	return l
}
