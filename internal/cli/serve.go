package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	quizflow "github.com/marcobahe/quiz-maker-fullfunnel-sub001"
	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/internal/config"
	quizhttp "github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP adapter until ctx is cancelled, then drains in-flight
// requests and pending dispatches.
func Serve(ctx context.Context, out, errOut io.Writer, cfg *config.Config) error {
	logger, err := createLogger(errOut, cfg.Log)
	if err != nil {
		return err
	}
	stack, err := createStack(cfg, logger)
	if err != nil {
		return err
	}

	handler := quizhttp.NewHandler(stack.Engine, stack.Sessions,
		quizhttp.WithStreams(stack.Streams),
		quizhttp.WithLogger(logger),
		quizhttp.WithMetrics(promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{})),
		quizhttp.WithVersion(quizflow.Version),
	)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Graphs.Watch {
		go watchGraphs(ctx, stack.Engine, logger)
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Starting quizflow server on %s", srv.Addr)
		printSystemMessage(out, "Serving quizzes from: %s", cfg.Graphs.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		stack.Close(context.Background())
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	printSystemMessage(out, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		errs = append(errs, srv.Close())
	}
	errs = append(errs, stack.Close(shutdownCtx))
	if err := errors.Join(errs...); err != nil {
		return err
	}
	printSystemMessage(out, "Server stopped gracefully")
	return nil
}

// watchGraphs keeps the engine's compiled quiz cache fresh while serving.
func watchGraphs(ctx context.Context, eng *quizflow.Engine, logger *slog.Logger) {
	changes, err := eng.Watch(ctx)
	if err != nil {
		logger.Warn("graph watch disabled", "err", err)
		return
	}
	for id := range changes {
		logger.Info("quiz reloaded", "quiz", id)
	}
}
