package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/meal-roster/internal/app"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the meal reservation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides APP_PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *app.Config) error {
	log, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()
	repo := store.NewRepository(backend, log)

	authPath, err := app.AuthFilePath(cfg.AuthFile)
	if err != nil {
		return err
	}
	chef, err := app.LoadChefAuth(authPath, log)
	if err != nil {
		return err
	}

	srv, err := app.NewServer(cfg, repo, chef, log)
	if err != nil {
		return err
	}

	if cfg.ReminderRule != "" {
		notifier, closeNotifier, err := app.NewNotifier(cfg, log)
		if err != nil {
			return err
		}
		defer closeNotifier()

		worker, err := app.NewReminderWorker(repo, notifier, cfg.ReminderRule, cfg.Location, log)
		if err != nil {
			return err
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("reminder worker stopped", zap.Error(err))
			}
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting meal roster",
			zap.String("addr", fmt.Sprintf("http://localhost:%d", cfg.Port)),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend),
			zap.String("timezone", cfg.Timezone),
			zap.String("week_mode", cfg.WeekMode),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("waiting for pending requests to finish")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exiting")
	return nil
}
