package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursehub/coursehub-api/internal/api"
	mongostore "github.com/coursehub/coursehub-api/internal/infrastructure/db/mongo"
	"github.com/coursehub/coursehub-api/internal/infrastructure/seed"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := mongostore.EnsureIndexes(ctx, s.db); err != nil {
			return err
		}

		if s.cfg.SeedOnStart {
			if err := seedDefault(ctx, s); err != nil {
				return err
			}
		}

		e, err := api.NewRouter(s.db, s.redis, s.cfg, s.log)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			s.log.Info().Str("port", s.cfg.Port).Str("env", s.cfg.Env).Msg("http server listening")
			if err := e.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		s.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

// seedDefault upserts the embedded catalog.
func seedDefault(ctx context.Context, s *stores) error {
	courses, err := seed.DefaultCourses()
	if err != nil {
		return err
	}
	svcs := api.BuildServices(s.db, s.redis, s.cfg, s.log)
	n, err := svcs.Catalog.Seed(ctx, courses)
	if err != nil {
		return err
	}
	s.log.Info().Int("count", n).Msg("catalog seeded")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
