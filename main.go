package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cristianadrielbraun/qrblock/internal/handlers"
	"github.com/cristianadrielbraun/qrblock/internal/logging"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:           "qrblock",
		Short:         "Serve cached QR codes that link to courses",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $CONFIG_PATH or config.yaml)")
	rootCmd.AddCommand(serveCmd, renderCmd, logoCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(a.cfg.Server.Mode)
	r := gin.New()
	r.Use(handlers.RequestLogger())
	r.Use(gin.Recovery())

	h := handlers.New(a.composer, a.courses, a.cfg.Site.WWWRoot, a.cfg.Site.SystemContextID)
	h.Register(r)

	if a.registry != nil {
		r.GET(a.cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("qrblock listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("server error", "error", err)
			return err
		}
		return nil
	case <-sigint:
	}

	logging.Warn("shutdown signal received, closing server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", "error", err)
		return err
	}
	logging.Info("server stopped cleanly")
	return nil
}
