package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/quizrally/laneracer/internal/config"
	"github.com/quizrally/laneracer/internal/database"
	"github.com/quizrally/laneracer/internal/game"
	"github.com/quizrally/laneracer/internal/migrations"
	"github.com/quizrally/laneracer/internal/question"
	"github.com/quizrally/laneracer/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite question store ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	repo := question.NewRepository(db)
	selector, err := question.NewSelector(ctx, repo)
	if err != nil {
		return fmt.Errorf("initializing question selector: %w", err)
	}
	logger.Info("question store ready", "path", cfg.DBPath, "questions", selector.PoolSize())

	// --- Session registry ---
	registry := game.NewRegistry(game.Config{
		MaxRounds:       cfg.MaxRounds,
		LaneCount:       cfg.LaneCount,
		PreRollDelay:    cfg.PreRollDelay,
		LaneChoiceDwell: cfg.LaneChoiceDwell,
		QuestionDwell:   cfg.QuestionDwell,
		FeedbackDelay:   cfg.FeedbackDelay,
		RevealDelay:     cfg.RevealDelay,
		TeardownGrace:   cfg.TeardownGrace,
	}, logger, selector)

	// --- HTTP server ---
	srv := server.New(cfg.HTTPAddr, logger, registry, db, cfg.FrontendURL)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
