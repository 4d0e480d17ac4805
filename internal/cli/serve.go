package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/hoverlabel/internal/ai"
	"github.com/kdimtricp/hoverlabel/internal/api"
	"github.com/kdimtricp/hoverlabel/internal/config"
	"github.com/kdimtricp/hoverlabel/internal/coordinator"
	"github.com/kdimtricp/hoverlabel/internal/database"
	"github.com/kdimtricp/hoverlabel/internal/encoder"
	"github.com/kdimtricp/hoverlabel/internal/feedback"
	"github.com/kdimtricp/hoverlabel/internal/hover"
	"github.com/kdimtricp/hoverlabel/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API the browser extension talks to",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().String("feedback-sink", "sqlite", "where votes go (sqlite or http)")
	cmd.Flags().String("feedback-url", "", "feedback endpoint when --feedback-sink=http")

	vp.BindPFlag("listen_addr", cmd.Flags().Lookup("addr"))
	vp.BindPFlag("feedback_sink", cmd.Flags().Lookup("feedback-sink"))
	vp.BindPFlag("feedback_url", cmd.Flags().Lookup("feedback-url"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, closeSink, err := newFeedbackSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	service := hover.NewService(newEncoder(cfg), newClassifier(cfg), sink, hover.Config{
		CacheCapacity: cfg.CacheCapacity,
		Debounce:      cfg.Debounce,
		Coordinator:   coordinatorConfig(cfg),
	})
	defer service.Shutdown()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(api.NewHandlers(service)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("server starting", "addr", cfg.ListenAddr, "classifier", cfg.ClassifierURL,
			"feedback_sink", cfg.FeedbackSink)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newEncoder(cfg *config.Config) *encoder.Encoder {
	return encoder.New(encoder.Config{
		FetchTimeout: cfg.FetchTimeout,
		MaxBytes:     cfg.MaxImageBytes,
		MaxDimension: cfg.ResizeMaxDimension,
		JPEGQuality:  cfg.JPEGQuality,
	})
}

func newClassifier(cfg *config.Config) *ai.PredictClient {
	return ai.NewPredictClient(ai.ClientConfig{
		URL:   cfg.ClassifierURL,
		RPS:   cfg.ClassifierRPS,
		Burst: cfg.ClassifierBurst,
	})
}

func coordinatorConfig(cfg *config.Config) coordinator.Config {
	return coordinator.Config{
		MinDimension:    cfg.MinImageDimension,
		ClassifyTimeout: cfg.ClassifyTimeout,
	}
}

// newFeedbackSink returns the configured sink and a func that flushes
// pending votes and releases its resources.
func newFeedbackSink(cfg *config.Config) (feedback.Sink, func(), error) {
	switch cfg.FeedbackSink {
	case config.SinkHTTP:
		sink := feedback.NewHTTPSink(cfg.FeedbackURL)
		return sink, sink.Wait, nil
	default:
		db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		sink := database.NewFeedbackSink(database.NewFeedbackRepository(db))
		return sink, func() {
			sink.Wait()
			if err := db.Close(); err != nil {
				logging.Warn("failed to close database", "error", err)
			}
		}, nil
	}
}
