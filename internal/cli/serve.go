package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/bienesraices/internal/auth"
	"github.com/evcraddock/bienesraices/internal/config"
	"github.com/evcraddock/bienesraices/internal/db"
	"github.com/evcraddock/bienesraices/internal/email"
	"github.com/evcraddock/bienesraices/internal/logging"
	"github.com/evcraddock/bienesraices/internal/upload"
	"github.com/evcraddock/bienesraices/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web site",
		Long:  "Start the HTTP server for the listing site, the catalog endpoint and /metrics. Settings come from BR_* environment variables and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.Load()
			if port > 0 {
				cfg.Addr = fmt.Sprintf(":%d", port)
			}
			if flagDB != "" {
				cfg.DBPath = flagDB
			}
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: BR_ADDR or :3000)")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWTSecret == config.DevJWTSecret {
		slog.Warn("using development session secret")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	images, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	limiter := auth.NewLoginLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if c, ok := limiter.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("closing rate limiter", "err", err)
			}
		}()
	}

	srv, err := web.NewServer(database, web.Options{
		BaseURL:        cfg.BaseURL,
		JWTSecret:      cfg.JWTSecret,
		SessionTTL:     cfg.SessionTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		Images:         images,
		Mailer:         email.NewMailer(cfg.SMTP, cfg.BaseURL),
		Limiter:        limiter,
		Metrics:        logging.NewMetrics(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "base_url", cfg.BaseURL, "db", cfg.DBPath)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
