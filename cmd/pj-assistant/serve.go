package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-go/pj-assistant/pkg/gateway/config"
	gatewayserver "github.com/vango-go/pj-assistant/pkg/gateway/server"
)

func newServeCmd(opts *rootOptions, deps appDeps) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the host bridge and the booking API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deps.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, logger, cleanup, err := setup(ctx, opts, deps, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(ctx, cfg, logger, deps)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PJ_ADDR)")
	return cmd
}

func buildHTTPServer(cfg config.Config, handler http.Handler, base context.Context) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger, deps appDeps) error {
	if err := cfg.RequireAPIKey(); err != nil {
		logger.Warn("sessions will fail to connect", "error", err)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	st, err := buildStack(ctx, cfg, logger, deps)
	if err != nil {
		return err
	}
	defer st.Close()

	gw := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Assistant:   st.assistant,
		Inbox:       st.inbox,
		Store:       st.store,
		Catalog:     st.catalog,
		BaseContext: baseCtx,
	})
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		gw.Hub().Run(baseCtx)
	}()

	httpSrv := buildHTTPServer(cfg, gw.Handler(), baseCtx)
	logger.Info("starting assistant server", "addr", cfg.Addr, "store_driver", cfg.StoreDriver, "version", version)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		cancelBase()
		<-hubDone
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	if gw.Lifecycle().BeginDrain(time.Now()) {
		warned := gw.Clients().WarnAll("draining", "server is shutting down")
		logger.Info("draining hosts", "warned", warned)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	shutdownErr := httpSrv.Shutdown(shutdownCtx)

	gw.Clients().CancelAll()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.Clients().Wait(waitCtx) {
		logger.Warn("hosts still attached after grace period", "count", gw.Clients().Count())
	}
	cancelBase()
	<-hubDone

	if shutdownErr != nil {
		return fmt.Errorf("shutdown http server: %w", shutdownErr)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("assistant server stopped")
	return nil
}
