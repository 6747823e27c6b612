package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aurahq/aura/internal/action"
	"github.com/aurahq/aura/internal/analysis"
	"github.com/aurahq/aura/internal/api"
	"github.com/aurahq/aura/internal/predict"
	"github.com/aurahq/aura/internal/scan"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the analysis, prediction, and action
endpoints under /api/v1. By default it listens on port 8080; use --port
to change it. The server shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		engine, err := action.New(nil)
		if err != nil {
			return fmt.Errorf("build action engine: %w", err)
		}

		chain := buildChain()
		analyzer := analysis.New(scan.New(), chain)
		srv := api.NewServer(s, analyzer, predict.New(), engine)

		addr := fmt.Sprintf(":%d", viper.GetInt("port"))
		httpSrv := &http.Server{
			Addr:    addr,
			Handler: srv.Router(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("server listening", "addr", addr, "providers", chain.Len())
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
