package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/tasklist/internal/access"
	"github.com/BuzzLyutic/tasklist/internal/config"
	"github.com/BuzzLyutic/tasklist/internal/duedate"
	"github.com/BuzzLyutic/tasklist/internal/events"
	"github.com/BuzzLyutic/tasklist/internal/handler"
	"github.com/BuzzLyutic/tasklist/internal/i18n"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/internal/smartsyntax"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Подключаем БД
	pool, err := connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close() // Закрываем пул при выходе
	logger.Info("connected to the database")

	catalog, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}

	bus := events.NewBus(logger, cfg.WorkerCount, cfg.EventBuffer)
	bus.SubscribeAll(events.LogObserver(logger))
	bus.Start(context.Background()) // Не привязан к ctx: Stop дочитывает очередь
	defer bus.Stop()

	store := repo.NewStore(pool)
	dates := duedate.Resolver{DayFirst: cfg.DayFirst}
	tasks := service.NewTaskService(store, smartsyntax.New(dates), bus, service.Options{
		SmartSyntax: cfg.SmartSyntax,
		AutoTag:     cfg.AutoTag,
		DayFirst:    cfg.DayFirst,
	})
	h := handler.NewTaskHandler(tasks, service.NewTaskQueryBuilder(store), access.NewPolicy(store.Lists()), catalog, logger)

	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unavailable"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(access.Header(cfg.LoginHeader))
		h.Routes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Запуск сервера и graceful shutdown
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
