package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nextstep-backend/internal/plantoken"
	"nextstep-backend/internal/server"
	"nextstep-backend/internal/tasks"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	gw := a.gateway()
	if gw.Err() != nil {
		a.logger.Warn("starting without a language model; /api/suggest and /api/feedback will fail", zap.Error(gw.Err()))
	}

	engine := tasks.NewEngine(gw, a.recorder, a.logger.Named("engine"))
	signer := plantoken.New(a.cfg.PlanSecret, a.cfg.PlanTokenRequired)

	srv := &http.Server{
		Addr: a.cfg.Addr(),
		Handler: server.New(server.Deps{
			Engine:    engine,
			Signer:    signer,
			History:   a.recorder,
			StaticDir: a.cfg.StaticDir,
			Logger:    a.logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("api server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
