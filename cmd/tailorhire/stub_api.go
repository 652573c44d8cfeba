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

	"github.com/jonathan/tailorhire/internal/stubapi"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var stubAPICmd = &cobra.Command{
	Use:   "stub-api",
	Short: "Run a local stand-in for the Optimization API",
	Long: `Serves /api/optimize, /api/upload and /health with deterministic responses
so the site can be exercised without the real backend.`,
	RunE: runStubAPI,
}

var (
	stubAPIPort  int
	stubAPIDelay time.Duration
)

func init() {
	stubAPICmd.Flags().IntVar(&stubAPIPort, "port", 8000, "Port to listen on")
	stubAPICmd.Flags().DurationVar(&stubAPIDelay, "delay", 0, "Artificial latency added to optimize calls")
	rootCmd.AddCommand(stubAPICmd)
}

func runStubAPI(_ *cobra.Command, _ []string) error {
	setupLogging(os.Stderr, "info", "console")

	stub := stubapi.New(stubapi.Config{Version: version, Delay: stubAPIDelay})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", stubAPIPort),
		Handler:           stub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("stub API starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("stub API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
