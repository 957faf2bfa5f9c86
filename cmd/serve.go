package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/herobanner/internal/alttext"
	"github.com/lehigh-university-libraries/herobanner/internal/config"
	"github.com/lehigh-university-libraries/herobanner/internal/handlers"
	"github.com/lehigh-university-libraries/herobanner/internal/heroimages"
	"github.com/lehigh-university-libraries/herobanner/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hero image admin API",
		Long: `Starts the admin API on the configured port.

Images are stored in the GCS bucket named by storage.bucket (GCS_BUCKET_NAME),
or below storage.dir when storage.backend is "disk". When server.token is set
every /api/admin request must carry it as a bearer token.`,
		Example: `  # Start server on the configured port (default 8080)
  herobanner serve

  # Local development against a directory
  HERO_STORAGE_BACKEND=disk herobanner serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if port != "" {
				cfg.Server.Port = port
			}

			bucket, staticDir, err := openBucket(ctx, cfg.Storage)
			if err != nil {
				return err
			}

			var describer heroimages.Describer
			d, err := alttext.New(alttext.Config{
				Provider: cfg.AltText.Provider,
				Model:    cfg.AltText.Model,
				APIKey:   cfg.AltText.APIKey,
				URL:      cfg.AltText.URL,
			})
			if err != nil {
				return err
			}
			if d != nil {
				describer = d
				slog.Info("Alt text generation enabled", "provider", cfg.AltText.Provider)
			}

			images, err := heroimages.New(ctx, bucket, describer)
			if err != nil {
				return err
			}

			if cfg.Server.Token == "" {
				slog.Warn("server.token is empty, the admin API is unauthenticated")
			}
			handler := handlers.New(images, cfg.Server.Token, staticDir)

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Herobanner admin API available", "addr", addr, "url", "http://localhost"+addr, "storage", cfg.Storage.Backend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides server.port)")

	return cmd
}

// openBucket returns the configured bucket and, for disk storage, the
// directory the server should expose under /static/.
func openBucket(ctx context.Context, cfg config.StorageConfig) (storage.Bucket, string, error) {
	switch cfg.Backend {
	case "gcs":
		var opts []option.ClientOption
		if cfg.Project != "" {
			opts = append(opts, option.WithQuotaProject(cfg.Project))
		}
		b, err := storage.NewGCSBucket(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, "", err
		}
		return b, "", nil
	case "disk":
		b, err := storage.NewDiskBucket(cfg.Dir, "/static")
		if err != nil {
			return nil, "", err
		}
		return b, cfg.Dir, nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
