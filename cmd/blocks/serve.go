package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/blocks"
	"github.com/aretw0/blocks/internal/cli"
	"github.com/aretw0/blocks/internal/presentation/tui"
	httpAdapter "github.com/aretw0/blocks/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the designer HTTP server",
	Long:  `Serves the designer API, Prometheus metrics and a per-page event stream over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		app, cfg, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			tui.PrintBanner(cmd.ErrOrStderr(), blocks.Version)
		}

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: httpAdapter.NewHandler(app.Engine,
				httpAdapter.WithEvents(app.Events),
				httpAdapter.WithGatherer(app.Registry),
				httpAdapter.WithLogger(app.Logger),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("server listening", "addr", srv.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCtx.Done():
			app.Logger.Info("shutting down", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			app.Logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
}
