package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jason-s-yu/argumentor/internal/auth"
	"github.com/jason-s-yu/argumentor/internal/cache"
	"github.com/jason-s-yu/argumentor/internal/config"
	"github.com/jason-s-yu/argumentor/internal/debate"
	"github.com/jason-s-yu/argumentor/internal/handlers"
	"github.com/jason-s-yu/argumentor/internal/judge"
	"github.com/jason-s-yu/argumentor/internal/room"
	"github.com/jason-s-yu/argumentor/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the debate server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			port, _ := cmd.Flags().GetInt("port")
			viper.Set("http.port", port)
		}
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides http.port)")
}

func serve(parent context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.WithField("addr", cfg.Redis.Addr).Info("connected to Redis")

	seats, err := auth.NewSeatSigner(cfg.Auth.SeatKeySeed, cfg.Auth.SeatTTL)
	if err != nil {
		return err
	}
	if cfg.Auth.SeatKeySeed == "" {
		logger.Warn("auth.seat_key_seed is empty; seat tokens will not survive a restart")
	}
	if cfg.Judge.APIKey == "" {
		logger.Warn("judge.api_key is empty; finished debates will stay unevaluated")
	}

	coord := room.NewCoordinator(room.Options{
		Store:        store.NewRedisStore(rdb, cfg.TTLPolicy()),
		Engine:       debate.NewEngine(cfg.Rules()),
		Judge:        judge.NewOpenAI(cfg.Judge.APIKey, cfg.Judge.BaseURL, cfg.Judge.Model, cfg.Judge.Timeout),
		JudgeTimeout: cfg.Judge.Timeout,
		Seats:        seats,
		Actions:      cache.NewActionLog(rdb, cfg.ActionLog.Queue),
		Logger:       logger,
	})
	if err := coord.Resume(ctx); err != nil {
		logger.WithError(err).Warn("failed to resume debates")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handlers.NewRouter(logger, coord),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		coord.Shutdown()
		return err
	})
	return g.Wait()
}
