// Command review-server serves the Chess.com game review site.
//
// Usage:
//
//	review-server serve
//	review-server evalstart --depth 12
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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/chesscom-review/internal/adapter/reviewpresenter"
	"github.com/park285/chesscom-review/internal/chess"
	"github.com/park285/chesscom-review/internal/config"
	"github.com/park285/chesscom-review/internal/msgcat"
	"github.com/park285/chesscom-review/internal/obslog"
	"github.com/park285/chesscom-review/internal/reviewbuilder"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "review-server",
		Short:         "Chess.com game review server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(evalStartCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := obslog.InitFromEnv(); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger := obslog.L()
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps, err := reviewbuilder.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			defer func() { _ = deps.Close() }()

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           deps.Router,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("review server listening",
					zap.String("addr", cfg.HTTPAddr),
					zap.Bool("engine", deps.Evaluator.Available()),
					zap.Bool("archive_cache", deps.Redis != nil))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func evalStartCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "evalstart",
		Short: "Evaluate the starting position and print the best line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			evaluator := chess.NewEvaluator(ctx, chess.EvaluatorConfig{
				BinaryPath:  cfg.StockfishPath,
				Depth:       depth,
				Threads:     cfg.EngineThreads,
				MultiPV:     cfg.EngineMultiPV,
				HashMB:      cfg.EngineHashMB,
				PoolSize:    1,
				InitTimeout: cfg.EngineInitLimit,
			}, obslog.L())
			defer func() { _ = evaluator.Close() }()

			msgs, err := msgcat.New(cfg.MessagesDir)
			if err != nil {
				return fmt.Errorf("load messages: %w", err)
			}
			if !evaluator.Available() {
				return errors.New(msgs.RenderOr("engine.unavailable", nil, "Engine not available"))
			}

			analysis := evaluator.Evaluate(ctx, startFEN)
			fmt.Fprintln(cmd.OutOrStdout(), reviewpresenter.NewFormatter(msgs).Report(startFEN, analysis))
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 10, "search depth")
	return cmd
}
