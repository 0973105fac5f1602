package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"expense-backfill/internal/handler"
	"expense-backfill/internal/logging"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the backfill operation over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			uc, err := a.newUseCase(s)
			if err != nil {
				return err
			}

			h := handler.New(uc, a.log)
			srv := &http.Server{
				Addr:         a.cfg.Server.Addr,
				Handler:      logging.HTTPMiddleware(a.log, h.Routes()),
				ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("address", srv.Addr).Info("server_starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
