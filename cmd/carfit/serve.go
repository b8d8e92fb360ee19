package main

import (
	"carfit/internal/server"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// serve запускает HTTP-сервер и блокируется до SIGINT/SIGTERM,
// после чего корректно завершает сервер и закрывает хранилища.
func serve(ctx context.Context) error {
	a, err := newApp(nil)
	if err != nil {
		slog.Error("Unable to start", "error", err)
		return err
	}
	defer a.closeLog()

	if ctx == nil {
		ctx = context.Background()
	}
	appCtx, appCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	historyRepo, err := a.newHistory(appCtx)
	if err != nil {
		slog.Error("Unable to initialize history", "error", err)
		return err
	}
	auditLog := a.newAudit()

	cfg := a.config.Server
	router := server.NewApiV1Router(cfg.SessionCookie, cfg.AdminToken, a.config.Ranking.TopN, server.Deps{
		Catalog: a.catalog,
		Ranker:  a.engine,
		History: historyRepo,
		Audit:   auditLog,
		Metrics: a.metrics,
	})
	srv := server.NewServer(cfg.Address, cfg.ReadTimeout, cfg.WriteTimeout, router)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			appCancel()
		}
	}()
	slog.Info("Server listening " + cfg.Address)
	<-appCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")

	if err := historyRepo.Close(); err != nil {
		slog.Error("History close", "error", err)
	}
	if err := auditLog.Close(); err != nil {
		slog.Error("Audit log close", "error", err)
	}
	return nil
}
