package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/a3tai/labreport-summarizer/internal/config"
	"github.com/a3tai/labreport-summarizer/internal/httpapi"
	"github.com/a3tai/labreport-summarizer/internal/mcp"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP upload API (--mode=server) or MCP tools over stdio (--mode=stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			if a.cfg.IsServerMode() {
				return a.serveHTTP(ctx)
			}
			return a.serveStdio(ctx)
		},
	}

	cmd.Flags().String("mode", config.ModeStdio, "transport: stdio (MCP) or server (HTTP)")
	cmd.Flags().String("host", config.DefaultHost, "HTTP listen host")
	cmd.Flags().Int("port", config.DefaultPort, "HTTP listen port")
	cmd.Flags().String("sheet", config.DefaultSheet, "worksheet name for spreadsheet downloads")

	return cmd
}

func (a *app) newHTTPServer(eng *engine) *http.Server {
	return &http.Server{
		Addr: a.cfg.Address(),
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Pipeline:    eng.pipeline,
			Gatherer:    eng.registry,
			Logger:      zap.L().Named("http"),
			Version:     a.cfg.Version,
			Sheet:       a.cfg.Output.Sheet,
			MaxFileSize: a.cfg.MaxFileSize,
			MaxFiles:    a.cfg.HTTP.MaxFiles,

			AllowedOrigins: a.cfg.HTTP.CORSOrigins,
			RateLimit:      rate.Limit(a.cfg.HTTP.RateLimit),
			Burst:          a.cfg.HTTP.Burst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *app) serveHTTP(ctx context.Context) error {
	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	srv := a.newHTTPServer(eng)

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func (a *app) serveStdio(ctx context.Context) error {
	eng, err := a.newEngine()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(a.cfg, eng.pipeline)
	if err != nil {
		return eris.Wrap(err, "create MCP server")
	}
	return server.Run(ctx)
}
