package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/airac-cycle/internal/api"
	"github.com/zapponejosh/airac-cycle/internal/database"
	"github.com/zapponejosh/airac-cycle/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve cycle lookups over HTTP and record rollovers",
		Long: `Serve the cycle API on PORT and record the current and next cycle
into DATABASE_PATH on REFRESH_SCHEDULE. Stops on SIGINT or SIGTERM.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs the API server and rollover scheduler until ctx is done.
func (a *app) serve(ctx context.Context) error {
	log := a.logger
	log.Info("starting airac server",
		slog.String("env", a.cfg.Env),
		slog.Int("port", a.cfg.Port),
		slog.String("timezone", a.cfg.Timezone),
	)

	db, err := database.Open(a.cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rollover := scheduler.New(a.provider, db, log, a.cfg.RefreshSchedule,
		scheduler.WithClock(a.now),
		scheduler.WithLocation(a.cfg.Location()),
	)
	if err := rollover.RunOnce(ctx); err != nil {
		log.Warn("initial rollover run failed", slog.Any("error", err))
	}
	if err := rollover.Start(); err != nil {
		return err
	}
	defer rollover.Stop()

	handlers := api.NewHandlers(db, a.provider, a.now, a.cfg.Location(), log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           api.SetupRoutes(handlers, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
